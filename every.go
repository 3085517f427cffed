package tempo

import "time"

// ConstantDelaySchedule is a simple recurring duty cycle, e.g. "every 5
// minutes". It does not support activations more frequent than once a second.
type ConstantDelaySchedule struct {
	Delay time.Duration
}

// Every returns a Schedule that activates once every duration. Delays below
// a second round up to one second; sub-second remainders are truncated.
func Every(duration time.Duration) ConstantDelaySchedule {
	if duration < time.Second {
		duration = time.Second
	}
	return ConstantDelaySchedule{
		Delay: duration - duration%time.Second,
	}
}

// Next returns t plus the delay, rounded to the next second boundary.
func (s ConstantDelaySchedule) Next(t time.Time) time.Time {
	if s.Delay <= 0 {
		// Zero-value schedules would spin the re-arm loop.
		return t.Add(time.Second)
	}
	return t.Add(s.Delay - time.Duration(t.Nanosecond())*time.Nanosecond)
}
