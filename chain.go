package tempo

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"
)

// TaskWrapper decorates a TaskFunc with cross-cutting behavior.
type TaskWrapper func(TaskFunc) TaskFunc

// Chain is a sequence of TaskWrappers applied to every task a scheduler
// runs. The zero value is a valid empty chain.
type Chain struct {
	wrappers []TaskWrapper
}

// NewChain returns a Chain consisting of the given wrappers.
func NewChain(w ...TaskWrapper) Chain {
	return Chain{w}
}

// Then decorates the given task function with all wrappers in the chain.
//
// This:
//
//	NewChain(m1, m2, m3).Then(task)
//
// is equivalent to:
//
//	m1(m2(m3(task)))
func (c Chain) Then(fn TaskFunc) TaskFunc {
	for i := range c.wrappers {
		fn = c.wrappers[len(c.wrappers)-i-1](fn)
	}
	return fn
}

// Recover contains panics in wrapped task functions and logs them with the
// provided logger. The recovered run yields no return value, so in iterative
// mode the previous arguments carry forward.
func Recover(logger Logger) TaskWrapper {
	return func(fn TaskFunc) TaskFunc {
		return func(args ...any) (out []any) {
			defer func() {
				if r := recover(); r != nil {
					const size = 64 << 10
					buf := make([]byte, size)
					buf = buf[:runtime.Stack(buf, false)]
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					logger.Error(err, "panic", "stack", "...\n"+string(buf))
				}
			}()
			return fn(args...)
		}
	}
}

// Jitter delays each execution by a uniform random duration in [0, max).
// It spreads tasks sharing an activation instant so they do not all start
// on the same tick.
func Jitter(max time.Duration) TaskWrapper {
	return func(fn TaskFunc) TaskFunc {
		return func(args ...any) []any {
			if max > 0 {
				time.Sleep(rand.N(max))
			}
			return fn(args...)
		}
	}
}
