package tempo

import (
	"sync/atomic"
	"time"
)

// triggerOutcome is the committed fate of a trigger.
type triggerOutcome int

const (
	// outcomeProceed runs the task function: the timer won the race.
	outcomeProceed triggerOutcome = iota
	// outcomeCancel runs nothing.
	outcomeCancel
	// outcomeRedirect runs the substitute callback instead of the task.
	outcomeRedirect
)

// decision is the single value ever committed to a trigger's cell.
type decision struct {
	outcome triggerOutcome
	cb      StopCallback // set for outcomeRedirect
}

// decisionCell is a thread-safe commit-once cell. The first committer wins
// via compare-and-swap; every later commit is a silent no-op, and every
// reader observes the same committed value. The closed channel publishes
// the commit to blocked waiters.
type decisionCell struct {
	val  atomic.Pointer[decision]
	done chan struct{}
}

func newDecisionCell() *decisionCell {
	return &decisionCell{done: make(chan struct{})}
}

// commit attempts to commit d and reports whether this call won.
func (c *decisionCell) commit(d *decision) bool {
	if c.val.CompareAndSwap(nil, d) {
		close(c.done)
		return true
	}
	return false
}

// await blocks until a decision has been committed, then returns it.
func (c *decisionCell) await() *decision {
	<-c.done
	return c.val.Load()
}

// Trigger is a single-shot cancellable countdown to a target instant.
// Exactly one of three outcomes is ever committed: the internal timer firing
// commits proceed, Cancel commits cancel, Redirect commits a substitute
// callback. Whichever commits first wins; the rest become no-ops. The timer
// wait and the external cancel/redirect are genuinely concurrent.
type Trigger struct {
	at   time.Time
	cell *decisionCell
}

// newTrigger arms a countdown to the given instant on the provided clock.
func newTrigger(clock Clock, at time.Time) *Trigger {
	t := &Trigger{at: at, cell: newDecisionCell()}
	timer := clock.NewTimer(at.Sub(clock.Now()))
	go func() {
		select {
		case <-timer.C():
			t.cell.commit(&decision{outcome: outcomeProceed})
		case <-t.cell.done:
			// An external cancel or redirect won; release the timer.
			timer.Stop()
		}
	}()
	return t
}

// At returns the instant the trigger counts down to.
func (t *Trigger) At() time.Time { return t.at }

// Cancel commits the cancel outcome. A harmless no-op if the trigger has
// already committed.
func (t *Trigger) Cancel() {
	t.cell.commit(&decision{outcome: outcomeCancel})
}

// Redirect commits a substitute callback to run in place of the task
// function. A harmless no-op if the trigger has already committed.
func (t *Trigger) Redirect(cb StopCallback) {
	t.cell.commit(&decision{outcome: outcomeRedirect, cb: cb})
}

// await blocks until the trigger's fate is committed.
func (t *Trigger) await() *decision {
	return t.cell.await()
}
