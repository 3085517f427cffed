package tempo

import (
	"sort"
	"sync"
	"time"
)

// Clock provides the time operations the runtime depends on, so tests can
// substitute a controllable implementation.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a single-event countdown, the subset of time.Timer the trigger
// needs.
type Timer interface {
	// C returns the channel on which the timer fires.
	C() <-chan time.Time
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer; false means it had already fired or been stopped.
	Stop() bool
}

// RealClock implements Clock on the standard time package. It is the
// default clock in production.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// NewTimer creates a timer that fires after at least duration d.
func (RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

type realTimer struct {
	timer *time.Timer
}

func (r *realTimer) C() <-chan time.Time { return r.timer.C }

func (r *realTimer) Stop() bool { return r.timer.Stop() }

// FakeClock is a controllable clock for tests: time only moves when Advance
// or Set is called, and timers fire deterministically as their deadlines are
// crossed.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer // kept sorted by deadline
	waiters []chan struct{}
}

// NewFakeClock returns a FakeClock frozen at the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the fake clock's current time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTimer creates a fake timer that fires when the clock is advanced past
// its deadline. Non-positive durations fire immediately.
func (f *FakeClock) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{
		clock:    f,
		deadline: f.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	if d <= 0 {
		t.ch <- f.now
		return t
	}
	f.timers = append(f.timers, t)
	sort.SliceStable(f.timers, func(i, j int) bool {
		return f.timers[i].deadline.Before(f.timers[j].deadline)
	})
	f.notifyWaiters()
	return t
}

// Advance moves the clock forward by d and fires every timer whose deadline
// has been reached.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.fireExpired()
}

// Set jumps the clock to t and fires every timer whose deadline has been
// reached.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
	f.fireExpired()
}

// BlockUntil blocks until at least n timers are armed on the clock. Tests
// use it to synchronize with timer creation before advancing time.
func (f *FakeClock) BlockUntil(n int) {
	for {
		f.mu.Lock()
		if len(f.timers) >= n {
			f.mu.Unlock()
			return
		}
		waiter := make(chan struct{}, 1)
		f.waiters = append(f.waiters, waiter)
		f.mu.Unlock()
		<-waiter
	}
}

// TimerCount returns the number of armed timers, for test assertions.
func (f *FakeClock) TimerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// fireExpired fires and drops every timer due at or before now.
// Caller holds f.mu.
func (f *FakeClock) fireExpired() {
	for len(f.timers) > 0 && !f.timers[0].deadline.After(f.now) {
		t := f.timers[0]
		f.timers = f.timers[1:]
		select {
		case t.ch <- f.now:
		default:
		}
	}
}

// notifyWaiters wakes goroutines blocked in BlockUntil. Caller holds f.mu.
func (f *FakeClock) notifyWaiters() {
	for _, w := range f.waiters {
		select {
		case w <- struct{}{}:
		default:
		}
	}
	f.waiters = nil
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	ch       chan time.Time
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, armed := range t.clock.timers {
		if armed == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}
