package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/result"
)

// DefaultFailureThreshold is the number of consecutive failed polls after
// which the tracker is considered offline.
const DefaultFailureThreshold = 3

// Snapshot represents the latest tracking data available to observers.
type Snapshot struct {
	Job      job.Job
	HasJob   bool
	Tracking bool // a poll loop is active for Job

	Delay               time.Duration // delay before the next scheduled poll
	Polls               int
	ConsecutiveFailures int // Number of consecutive poll failures
	FailureThreshold    int
	LastError           error
	StopError           error // terminal, non-transient error that ended tracking

	Result    result.View
	HasResult bool

	LastUpdated time.Time
}

// IsOffline returns true once consecutive poll failures reach the threshold.
func (s Snapshot) IsOffline() bool {
	threshold := s.FailureThreshold
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return s.ConsecutiveFailures >= threshold
}

// ConnectivityError returns the last transport error once the tracker is
// offline, nil otherwise.
func (s Snapshot) ConnectivityError() error {
	if !s.IsOffline() {
		return nil
	}
	return s.LastError
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu        sync.RWMutex
	snapshot  Snapshot
	threshold int
	now       func() time.Time
}

// NewStore returns a Store using threshold for IsOffline.
func NewStore(threshold int) *Store {
	return &Store{threshold: threshold}
}

// SetClock overrides the time source used for LastUpdated.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Begin resets the snapshot for a new tracking session of j. Tracking stays
// true until Stop, including while a terminal seed is being completed.
func (s *Store) Begin(j job.Job, delay time.Duration) {
	s.update(func(snap *Snapshot) {
		*snap = Snapshot{Job: j, HasJob: true, Tracking: true, Delay: delay}
	})
}

// RecordPoll records a successful poll. The failure counter and last error
// are cleared.
func (s *Store) RecordPoll(j job.Job, delay time.Duration) {
	s.update(func(snap *Snapshot) {
		snap.Job = j
		snap.HasJob = true
		snap.Delay = delay
		snap.Polls++
		snap.ConsecutiveFailures = 0
		snap.LastError = nil
	})
}

// RecordFailure records a transient poll failure. The previous job data is
// kept.
func (s *Store) RecordFailure(err error, delay time.Duration) {
	s.update(func(snap *Snapshot) {
		snap.Delay = delay
		snap.Polls++
		snap.ConsecutiveFailures++
		snap.LastError = err
	})
}

// SetJob replaces the job without counting a poll, as after a cancel.
func (s *Store) SetJob(j job.Job) {
	s.update(func(snap *Snapshot) {
		snap.Job = j
		snap.HasJob = true
	})
}

// RecordResult attaches the projected result of a finished job.
func (s *Store) RecordResult(v result.View) {
	s.update(func(snap *Snapshot) {
		snap.Result = v
		snap.HasResult = true
	})
}

// Stop marks tracking as ended. err is the terminal error, if any.
func (s *Store) Stop(err error) {
	s.update(func(snap *Snapshot) {
		snap.Tracking = false
		snap.Delay = 0
		if err != nil {
			snap.StopError = err
		}
	})
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	s.snapshot.FailureThreshold = s.threshold
	if s.now != nil {
		s.snapshot.LastUpdated = s.now()
	} else {
		s.snapshot.LastUpdated = time.Now()
	}
	s.mu.Unlock()
}

func (s *Store) cloneLocked() Snapshot {
	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	if s.snapshot.Job.Progress != nil {
		p := *s.snapshot.Job.Progress
		snap.Job.Progress = &p
	}
	if s.snapshot.Job.Failure != nil {
		f := *s.snapshot.Job.Failure
		snap.Job.Failure = &f
	}
	return snap
}
