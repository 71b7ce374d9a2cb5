package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/clock"
	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/logging"
	"github.com/five82/summit/internal/state"
)

// StatusFetcher is the single call the poll loop makes.
type StatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (api.JobStatus, error)
}

// FinishFunc runs once per session when the tracked job reaches done. Its
// error becomes the session's stop error.
type FinishFunc func(ctx context.Context, j job.Job) error

// ErrStopped is returned by Wait when tracking was cancelled before the job
// reached a terminal status.
var ErrStopped = errors.New("tracking stopped")

// Scheduler owns the single active poll loop. Starting a new loop always
// cancels and drains the previous one first, so at most one timer is armed
// and no two polls ever overlap.
type Scheduler struct {
	fetch  StatusFetcher
	clock  clock.Clock
	policy Policy
	store  *state.Store
	logger *logging.Logger
	finish FinishFunc

	// base scopes network calls. Cancelling a loop's token does not cancel
	// base, so an in-flight poll completes and is recorded.
	base      context.Context
	closeBase context.CancelFunc

	mu      sync.Mutex
	current *loop
}

type loop struct {
	jobID  string
	token  context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewScheduler builds a scheduler. finish may be nil.
func NewScheduler(fetch StatusFetcher, clk clock.Clock, policy Policy, store *state.Store, logger *logging.Logger, finish FinishFunc) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if store == nil {
		store = &state.Store{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		fetch:     fetch,
		clock:     clk,
		policy:    policy.Normalize(),
		store:     store,
		logger:    logger,
		finish:    finish,
		base:      base,
		closeBase: cancel,
	}
}

// Policy returns the normalised poll policy.
func (s *Scheduler) Policy() Policy {
	return s.policy
}

// Start begins tracking seed. Any previous loop is cancelled and waited for
// before the new one arms its first timer. A terminal seed is finished
// without polling.
func (s *Scheduler) Start(seed job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if s.base.Err() != nil {
		return
	}
	token, cancel := context.WithCancel(s.base)
	l := &loop{jobID: seed.ID, token: token, cancel: cancel, done: make(chan struct{})}
	s.current = l
	s.store.Begin(seed, s.policy.Base)
	go s.run(l, seed)
}

// Stop cancels the active loop, if any, and waits for it to exit. It
// reports whether a loop was running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Tracking returns the id of the job whose loop is still running.
func (s *Scheduler) Tracking() (string, bool) {
	s.mu.Lock()
	l := s.current
	s.mu.Unlock()
	if l == nil {
		return "", false
	}
	select {
	case <-l.done:
		return "", false
	default:
		return l.jobID, true
	}
}

// Wait blocks until the current loop exits and returns its outcome: nil
// after done, the job failure after error, the rejection or finish error
// otherwise, and ErrStopped when the loop was cancelled.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	l := s.current
	s.mu.Unlock()
	if l == nil {
		return ErrStopped
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return l.err
	}
}

// Close stops the active loop and aborts any in-flight request.
func (s *Scheduler) Close() {
	s.closeBase()
	s.Stop()
}

func (s *Scheduler) stopLocked() bool {
	l := s.current
	if l == nil {
		return false
	}
	running := true
	select {
	case <-l.done:
		running = false
	default:
	}
	l.cancel()
	<-l.done
	return running
}

func (s *Scheduler) run(l *loop, seed job.Job) {
	defer close(l.done)
	defer l.cancel()

	current := seed
	highest := seed.Progress
	delay := s.policy.Base
	failures := 0

	if current.Terminal() {
		l.err = s.complete(l, current)
		return
	}

	for {
		if l.token.Err() != nil {
			l.err = ErrStopped
			s.store.Stop(nil)
			return
		}
		timer := s.clock.NewTimer(delay)
		select {
		case <-l.token.Done():
			timer.Stop()
			l.err = ErrStopped
			s.store.Stop(nil)
			s.logger.Debug("poll loop for %s cancelled", l.jobID)
			return
		case <-timer.C():
		}
		// Both cases may be ready at once; a cancelled loop never polls.
		if l.token.Err() != nil {
			l.err = ErrStopped
			s.store.Stop(nil)
			s.logger.Debug("poll loop for %s cancelled", l.jobID)
			return
		}

		status, err := s.fetch.JobStatus(s.base, l.jobID)
		superseded := l.token.Err() != nil

		switch {
		case err == nil:
			next := current
			if applyErr := next.Apply(status); applyErr != nil {
				s.logger.Warn("ignoring status for %s: %v", l.jobID, applyErr)
				next = current
			}
			moved := advanced(highest, next.Progress)
			if moved {
				highest = next.Progress
			}
			delay = s.policy.Next(delay, moved)
			failures = 0
			current = next
			s.store.RecordPoll(current, delay)
			if superseded {
				l.err = ErrStopped
				s.store.Stop(nil)
				return
			}
			if current.Terminal() {
				l.err = s.complete(l, current)
				return
			}

		case api.IsRejected(err):
			s.logger.Error("status poll for %s rejected: %v", l.jobID, err)
			l.err = fmt.Errorf("poll job %s: %w", l.jobID, err)
			s.store.Stop(l.err)
			return

		default:
			if s.base.Err() != nil {
				l.err = ErrStopped
				s.store.Stop(nil)
				return
			}
			failures++
			delay = s.policy.NextFailure(delay)
			s.store.RecordFailure(err, delay)
			if failures == s.policy.FailureThreshold {
				s.logger.Error("server unreachable after %d polls for %s: %v", failures, l.jobID, err)
			} else {
				s.logger.Warn("status poll for %s failed (%d): %v", l.jobID, failures, err)
			}
			if superseded {
				l.err = ErrStopped
				s.store.Stop(nil)
				return
			}
		}
	}
}

// complete handles a terminal job exactly once: done runs the finish hook,
// error never fetches a result.
func (s *Scheduler) complete(l *loop, j job.Job) error {
	var err error
	switch j.Status {
	case job.StatusDone:
		s.logger.Info("job %s done", j.ID)
		if s.finish != nil {
			err = s.finish(s.base, j)
		}
	case job.StatusError:
		s.logger.Info("job %s failed: %v", j.ID, j.Failure)
		if j.Failure != nil {
			err = j.Failure
		} else {
			err = &job.Failure{Message: "processing failed"}
		}
	}
	s.store.Stop(err)
	return err
}
