package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresDueTimers(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	short := f.NewTimer(2 * time.Second)
	long := f.NewTimer(5 * time.Second)

	f.Advance(3 * time.Second)
	select {
	case got := <-short.C():
		if !got.Equal(start.Add(3 * time.Second)) {
			t.Fatalf("fired at %v, want %v", got, start.Add(3*time.Second))
		}
	default:
		t.Fatalf("short timer did not fire")
	}
	select {
	case <-long.C():
		t.Fatalf("long timer fired early")
	default:
	}
	if f.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", f.Pending())
	}
}

func TestFake_StopCountsOnlyArmedTimers(t *testing.T) {
	f := NewFake(time.Time{})
	timer := f.NewTimer(time.Second)
	if !timer.Stop() {
		t.Fatalf("Stop returned false for armed timer")
	}
	if timer.Stop() {
		t.Fatalf("second Stop returned true")
	}
	if f.Stopped() != 1 {
		t.Fatalf("Stopped = %d, want 1", f.Stopped())
	}
	if got := f.Armed(); len(got) != 1 || got[0] != time.Second {
		t.Fatalf("Armed = %v, want [1s]", got)
	}
}
