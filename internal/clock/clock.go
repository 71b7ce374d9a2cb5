// Package clock abstracts timers so the poll scheduler can be driven by a
// virtual clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clock creates timers and reports the current time.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of *time.Timer the scheduler relies on.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// New returns the wall clock.
func New() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{t: time.NewTimer(d)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }

// Fake is a hand-driven clock intended for tests. Timers fire only when
// Advance moves the clock past their deadline.
type Fake struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	pending []*fakeTimer
	armed   []time.Duration
	stopped int
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTimer arms a virtual timer.
func (f *Fake) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, deadline: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.pending = append(f.pending, t)
	f.armed = append(f.armed, d)
	f.cond.Broadcast()
	return t
}

// Advance moves virtual time forward and fires every timer whose deadline
// has been reached.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	keep := f.pending[:0]
	for _, t := range f.pending {
		if !t.deadline.After(f.now) {
			t.ch <- f.now
			continue
		}
		keep = append(keep, t)
	}
	f.pending = keep
	f.cond.Broadcast()
}

// Pending reports how many timers are armed and not yet fired or stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Stopped reports how many armed timers were cancelled before firing.
func (f *Fake) Stopped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// Armed returns the durations of every timer created so far, in order.
func (f *Fake) Armed() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.armed))
	copy(out, f.armed)
	return out
}

// BlockUntilArmed waits until at least n timers have ever been created.
func (f *Fake) BlockUntilArmed(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.armed) < n {
		f.cond.Wait()
	}
}

// BlockUntilPending waits until exactly n timers are pending.
func (f *Fake) BlockUntilPending(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.pending) != n {
		f.cond.Wait()
	}
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	ch       chan time.Time
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.pending {
		if p == t {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			f.stopped++
			f.cond.Broadcast()
			return true
		}
	}
	return false
}
