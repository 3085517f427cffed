package tempo

import "time"

// Hooks carries optional callbacks observing scheduler lifecycle events.
// Any field may be nil. Callbacks run synchronously on the chain goroutine,
// so they must be fast and must not call back into the scheduler for the
// same task.
type Hooks struct {
	// OnSchedule fires when a task's trigger is armed for an activation.
	OnSchedule func(task string, next time.Time)

	// OnScheduleError fires when a task is parked because its schedule has
	// no activation within the horizon.
	OnScheduleError func(task string, err error)

	// OnTaskStart fires immediately before the task function runs.
	OnTaskStart func(task string, scheduled time.Time)

	// OnTaskComplete fires after the task function returns or panics. err is
	// the contained panic, or nil.
	OnTaskComplete func(task string, duration time.Duration, err error)
}

// The call helpers are nil-safe on both the receiver and the field, so the
// scheduler never has to guard a hook invocation.

func (h *Hooks) callOnSchedule(task string, next time.Time) {
	if h != nil && h.OnSchedule != nil {
		h.OnSchedule(task, next)
	}
}

func (h *Hooks) callOnScheduleError(task string, err error) {
	if h != nil && h.OnScheduleError != nil {
		h.OnScheduleError(task, err)
	}
}

func (h *Hooks) callOnTaskStart(task string, scheduled time.Time) {
	if h != nil && h.OnTaskStart != nil {
		h.OnTaskStart(task, scheduled)
	}
}

func (h *Hooks) callOnTaskComplete(task string, duration time.Duration, err error) {
	if h != nil && h.OnTaskComplete != nil {
		h.OnTaskComplete(task, duration, err)
	}
}
