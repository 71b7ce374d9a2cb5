package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/clock"
	"github.com/five82/summit/internal/job"
)

func TestScheduler_IncreasingProgressStaysAtBaseline(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1",
		running(pct(10)), running(pct(20)), running(pct(30)), running(pct(40)), running(pct(55)))
	h.submitURL(t, "job-1")

	assert.Equal(t, 2*time.Second, h.clock.Armed()[0])
	for i := range 5 {
		assert.Equal(t, 2*time.Second, h.tick(t), "poll %d", i)
	}
	snap := h.engine.Snapshot()
	assert.Equal(t, "55%", snap.Job.ProgressLabel())
	assert.Equal(t, job.StatusRunning, snap.Job.Status)
}

func TestScheduler_NoProgressBacksOffToCap(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1",
		step{status: api.JobStatus{Status: api.StatusQueued}},
		running(nil), running(pct(30)), running(pct(30)), running(pct(12)))
	h.submitURL(t, "job-1")

	// queued, unknown progress: grow.
	assert.Equal(t, 3*time.Second, h.tick(t))
	assert.Equal(t, 4500*time.Millisecond, h.tick(t))
	// first numeric progress resets.
	assert.Equal(t, 2*time.Second, h.tick(t))
	// same, then lower progress: grow again, clamped eventually.
	want := []time.Duration{3 * time.Second, 4500 * time.Millisecond, 6750 * time.Millisecond, 10125 * time.Millisecond, 15 * time.Second, 15 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, h.tick(t), "step %d", i)
	}
	assert.Equal(t, "12%", h.engine.Snapshot().Job.ProgressLabel(), "progress is applied verbatim")
}

func TestScheduler_DoneHaltsAndFetchesResultOnce(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(pct(50)), done())
	h.submitURL(t, "job-1")

	h.tick(t)
	h.last(t)
	snap, err := h.engine.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, job.StatusDone, snap.Job.Status)
	assert.False(t, snap.Tracking)
	assert.True(t, snap.HasResult)
	assert.Equal(t, 1, h.backend.resultCount("job-1"))
	assert.Equal(t, 0, h.clock.Pending())

	armed := len(h.clock.Armed())
	h.clock.Advance(time.Minute)
	assert.Equal(t, armed, len(h.clock.Armed()), "no timer after terminal status")
	assert.Equal(t, 2, h.backend.statusCount("job-1"))
}

func TestScheduler_ErrorHaltsWithoutResultFetch(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", step{status: api.JobStatus{
		Status: api.StatusError,
		Error:  &api.JobError{Message: "Video unavailable", Code: "source_unavailable", Retryable: true},
	}})
	h.submitURL(t, "job-1")
	h.last(t)

	snap, err := h.engine.Wait(context.Background())
	var failure *job.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "source_unavailable", failure.Code)
	assert.True(t, snap.Job.CanRetry())
	assert.Equal(t, 0, h.backend.resultCount("job-1"))
	assert.Equal(t, 0, h.clock.Pending())
}

func TestScheduler_NewSubmissionCancelsPendingTimer(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(pct(10)))
	h.backend.script("job-2", running(pct(10)), done())

	h.submitURL(t, "job-1")
	require.Equal(t, 1, h.clock.Pending())

	h.submitURL(t, "job-2")
	assert.Equal(t, 1, h.clock.Stopped(), "exactly one pending timer cancelled")
	assert.Equal(t, 1, h.clock.Pending())

	h.tick(t)
	h.last(t)
	_, err := h.engine.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, h.backend.statusCount("job-1"), "superseded job never polled")
	assert.Equal(t, 2, h.backend.statusCount("job-2"))
	assert.Equal(t, "job-2", h.engine.Snapshot().Job.ID)
}

func TestScheduler_InFlightPollDoesNotRearm(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(pct(10)))
	h.backend.script("job-2", running(pct(10)))
	h.backend.mu.Lock()
	h.backend.gate = make(chan struct{})
	h.backend.gateJob = "job-1"
	h.backend.entered = make(chan struct{}, 1)
	h.backend.mu.Unlock()

	h.submitURL(t, "job-1")
	h.last(t)
	<-h.backend.entered // job-1 poll is in flight

	h.backend.mu.Lock()
	h.backend.nextID = append(h.backend.nextID, "job-2")
	h.backend.mu.Unlock()
	submitted := make(chan error, 1)
	go func() {
		_, err := h.engine.Submit(context.Background(), Request{URL: "https://youtu.be/dQw4w9WgXcQ"})
		submitted <- err
	}()

	select {
	case <-submitted:
		t.Fatal("submit returned while the previous poll was still in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(h.backend.gate)
	require.NoError(t, <-submitted)
	h.clock.BlockUntilArmed(2)

	assert.Equal(t, 1, h.backend.statusCount("job-1"), "in-flight outcome was processed")
	assert.Len(t, h.clock.Armed(), 2, "only the new job armed a timer")
	assert.Equal(t, 1, h.clock.Pending())
	assert.Equal(t, "job-2", h.engine.Snapshot().Job.ID)
}

func TestScheduler_FailuresSurfaceConnectivityErrorThenRecover(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", unreachable(), unreachable(), unreachable(), running(pct(25)), running(pct(30)))
	h.submitURL(t, "job-1")

	assert.Equal(t, 3*time.Second, h.tick(t))
	assert.Equal(t, 4500*time.Millisecond, h.tick(t))
	snap := h.engine.Snapshot()
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.NoError(t, snap.ConnectivityError(), "below threshold nothing is surfaced")

	assert.Equal(t, 6750*time.Millisecond, h.tick(t))
	snap = h.engine.Snapshot()
	assert.True(t, snap.IsOffline())
	assert.True(t, api.IsUnreachable(snap.ConnectivityError()))
	assert.True(t, snap.Tracking, "polling continues while offline")
	assert.Equal(t, 1, h.clock.Pending())

	assert.Equal(t, 2*time.Second, h.tick(t))
	snap = h.engine.Snapshot()
	assert.False(t, snap.IsOffline())
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.Equal(t, "25%", snap.Job.ProgressLabel())
	assert.Equal(t, 2*time.Second, h.tick(t))
}

func TestScheduler_FailureDelayCappedHigher(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", unreachable())
	h.submitURL(t, "job-1")
	var delay time.Duration
	for range 12 {
		delay = h.tick(t)
		assert.LessOrEqual(t, delay, 20*time.Second)
	}
	assert.Equal(t, 20*time.Second, delay)
}

func TestScheduler_RejectedStatusStopsImmediately(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(pct(10)))
	h.submitURL(t, "job-1")
	h.tick(t)
	h.backend.script("job-1") // job disappears: 404
	h.last(t)

	snap, err := h.engine.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.False(t, snap.Tracking)
	assert.True(t, api.IsNotFound(snap.StopError))
	assert.Equal(t, 0, h.clock.Pending())
}

func TestScheduler_UnexpectedTransitionIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(pct(40)), step{status: api.JobStatus{Status: api.StatusQueued}}, running(pct(60)))
	h.submitURL(t, "job-1")

	h.tick(t)
	assert.Equal(t, 3*time.Second, h.tick(t), "rejected transition counts as no progress")
	assert.Equal(t, job.StatusRunning, h.engine.Snapshot().Job.Status)
	assert.Equal(t, 2*time.Second, h.tick(t))
}

func TestScheduler_StopAndWait(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(nil))
	h.submitURL(t, "job-1")

	id, ok := h.engine.sched.Tracking()
	assert.True(t, ok)
	assert.Equal(t, "job-1", id)

	h.engine.Stop()
	_, err := h.engine.Wait(context.Background())
	assert.True(t, errors.Is(err, ErrStopped))
	_, ok = h.engine.sched.Tracking()
	assert.False(t, ok)
	assert.False(t, h.engine.Snapshot().Tracking)
	assert.False(t, h.engine.sched.Stop(), "second stop finds nothing running")
}

func TestScheduler_WaitHonoursContext(t *testing.T) {
	h := newHarness(t)
	h.backend.script("job-1", running(nil))
	h.submitURL(t, "job-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.engine.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// firedClock hands out timers that have already fired and runs onArm first,
// so the loop sees its token cancelled and its timer ready at the same time.
type firedClock struct {
	clock.Clock
	onArm func()
}

func (c *firedClock) NewTimer(time.Duration) clock.Timer {
	c.onArm()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return firedTimer{ch: ch}
}

type firedTimer struct {
	ch chan time.Time
}

func (t firedTimer) C() <-chan time.Time { return t.ch }
func (t firedTimer) Stop() bool          { return false }

func TestScheduler_CancelledLoopNeverPollsWhenTimerAlreadyFired(t *testing.T) {
	backend := newFakeBackend()
	backend.script("job-1", running(pct(10)))

	for i := 0; i < 100; i++ {
		clk := &firedClock{Clock: clock.New()}
		s := NewScheduler(backend, clk, DefaultPolicy(), nil, nil, nil)
		clk.onArm = func() { s.current.cancel() }

		s.Start(job.Job{ID: "job-1", Status: job.StatusQueued})
		err := s.Wait(context.Background())
		require.ErrorIs(t, err, ErrStopped)
		s.Close()
	}
	assert.Equal(t, 0, backend.statusCount("job-1"))
}
