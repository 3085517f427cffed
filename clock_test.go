package tempo

import (
	"testing"
	"time"
)

var clockBase = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestFakeClockAdvance(t *testing.T) {
	clock := NewFakeClock(clockBase)
	if !clock.Now().Equal(clockBase) {
		t.Fatalf("Now() = %v", clock.Now())
	}

	timer := clock.NewTimer(time.Minute)
	select {
	case <-timer.C():
		t.Fatal("timer fired before deadline")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired halfway to deadline")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case at := <-timer.C():
		if !at.Equal(clockBase.Add(time.Minute)) {
			t.Errorf("fired at %v", at)
		}
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestFakeClockSet(t *testing.T) {
	clock := NewFakeClock(clockBase)
	timer := clock.NewTimer(time.Hour)

	clock.Set(clockBase.Add(2 * time.Hour))
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire on Set past deadline")
	}
	if clock.TimerCount() != 0 {
		t.Errorf("TimerCount() = %d after fire", clock.TimerCount())
	}
}

func TestFakeClockImmediateTimer(t *testing.T) {
	clock := NewFakeClock(clockBase)
	timer := clock.NewTimer(-time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("non-positive duration should fire immediately")
	}
}

func TestFakeClockStop(t *testing.T) {
	clock := NewFakeClock(clockBase)
	timer := clock.NewTimer(time.Minute)

	if !timer.Stop() {
		t.Fatal("Stop() on an armed timer should report true")
	}
	if timer.Stop() {
		t.Fatal("second Stop() should report false")
	}
	clock.Advance(time.Hour)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeClockFiresInDeadlineOrder(t *testing.T) {
	clock := NewFakeClock(clockBase)
	late := clock.NewTimer(2 * time.Minute)
	early := clock.NewTimer(time.Minute)

	clock.Advance(time.Minute)
	select {
	case <-early.C():
	default:
		t.Fatal("early timer did not fire")
	}
	select {
	case <-late.C():
		t.Fatal("late timer fired early")
	default:
	}

	clock.Advance(time.Minute)
	select {
	case <-late.C():
	default:
		t.Fatal("late timer did not fire")
	}
}

func TestFakeClockBlockUntil(t *testing.T) {
	clock := NewFakeClock(clockBase)

	released := make(chan struct{})
	go func() {
		clock.BlockUntil(2)
		close(released)
	}()

	clock.NewTimer(time.Minute)
	select {
	case <-released:
		t.Fatal("BlockUntil(2) released with one timer")
	case <-time.After(10 * time.Millisecond):
	}

	clock.NewTimer(time.Minute)
	select {
	case <-released:
	case <-time.After(OneSecond):
		t.Fatal("BlockUntil(2) did not release with two timers")
	}
}

func TestRealClock(t *testing.T) {
	var clock Clock = RealClock{}
	before := time.Now()
	now := clock.Now()
	if now.Before(before) {
		t.Fatalf("RealClock.Now() went backwards: %v < %v", now, before)
	}

	timer := clock.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(OneSecond):
		t.Fatal("real timer did not fire")
	}
}
