package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/state"
)

type scripted struct {
	mu    sync.Mutex
	snaps []state.Snapshot
}

func (s *scripted) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snaps[0]
	if len(s.snaps) > 1 {
		s.snaps = s.snaps[1:]
	}
	return snap
}

func TestFollow_DeliversChangesUntilTrackingStops(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &scripted{snaps: []state.Snapshot{
		{Tracking: true, LastUpdated: t0, Job: job.Job{Status: job.StatusQueued}},
		{Tracking: true, LastUpdated: t0, Job: job.Job{Status: job.StatusQueued}},
		{Tracking: true, LastUpdated: t0.Add(time.Second), Job: job.Job{Status: job.StatusRunning}},
		{Tracking: false, LastUpdated: t0.Add(2 * time.Second), Job: job.Job{Status: job.StatusDone}},
	}}

	var seen []job.Status
	final := Follow(context.Background(), src, time.Millisecond, func(s state.Snapshot) {
		seen = append(seen, s.Job.Status)
	})

	want := []job.Status{job.StatusQueued, job.StatusRunning, job.StatusDone}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
	if final.Job.Status != job.StatusDone {
		t.Fatalf("final status = %q, want done", final.Job.Status)
	}
}

func TestFollow_StopsOnContextCancel(t *testing.T) {
	src := &scripted{snaps: []state.Snapshot{{Tracking: true}}}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan struct{})
	go func() {
		Follow(ctx, src, time.Millisecond, func(state.Snapshot) { calls++ })
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 for an unchanged snapshot", calls)
	}
}

func TestFollow_NotTrackingDeliversOnce(t *testing.T) {
	src := &scripted{snaps: []state.Snapshot{{Tracking: false, HasJob: true}}}
	calls := 0
	Follow(context.Background(), src, time.Millisecond, func(state.Snapshot) { calls++ })
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
