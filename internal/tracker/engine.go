package tracker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/clock"
	"github.com/five82/summit/internal/history"
	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/logging"
	"github.com/five82/summit/internal/result"
	"github.com/five82/summit/internal/state"
)

// Backend is everything the engine needs from the server. *api.Client
// implements it.
type Backend interface {
	api.JobService
	Register(ctx context.Context, username, password string) (api.Credentials, error)
	Login(ctx context.Context, username, password string) (api.Credentials, error)
	RotateKey(ctx context.Context) (string, error)
	ServerConfig(ctx context.Context) (api.ServerConfig, error)
}

var _ Backend = (*api.Client)(nil)

// Options configure an Engine.
type Options struct {
	Backend Backend
	Session *Session
	History *history.Reconciler
	Store   *state.Store
	Clock   clock.Clock
	Policy  Policy
	Logger  *logging.Logger
}

// Engine tracks one job at a time: it submits work, drives the poll
// scheduler, projects finished results and records them in history.
type Engine struct {
	backend Backend
	session *Session
	history *history.Reconciler
	store   *state.Store
	clock   clock.Clock
	logger  *logging.Logger
	sched   *Scheduler

	cfgMu     sync.Mutex
	serverCfg *api.ServerConfig
}

// NewEngine wires an engine. Backend and Session are required.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("engine backend required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("engine session required")
	}
	policy := opts.Policy.Normalize()
	store := opts.Store
	if store == nil {
		store = state.NewStore(policy.FailureThreshold)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	store.SetClock(clk.Now)
	hist := opts.History
	if hist == nil {
		hist = history.NewReconciler(opts.Backend, nil, opts.Session.LoggedIn, history.WithLogger(logger))
	}
	e := &Engine{
		backend: opts.Backend,
		session: opts.Session,
		history: hist,
		store:   store,
		clock:   clk,
		logger:  logger,
	}
	e.sched = NewScheduler(opts.Backend, clk, policy, store, logger, e.finish)
	return e, nil
}

// Session returns the engine's session context.
func (e *Engine) Session() *Session {
	return e.session
}

// Policy returns the effective poll policy.
func (e *Engine) Policy() Policy {
	return e.sched.Policy()
}

// Snapshot returns the current tracking state.
func (e *Engine) Snapshot() state.Snapshot {
	return e.store.Snapshot()
}

// Submit validates req, creates the job and starts tracking it. Any job
// tracked before is abandoned.
func (e *Engine) Submit(ctx context.Context, req Request) (job.Job, error) {
	maxMB := 0
	if strings.TrimSpace(req.FilePath) != "" {
		maxMB = e.maxUploadMB(ctx)
	}
	req, err := req.normalize(maxMB)
	if err != nil {
		return job.Job{}, err
	}

	var sub api.Submission
	var src job.Source
	if req.URL != "" {
		sub, err = e.backend.SubmitURL(ctx, api.URLRequest{URL: req.URL, SummaryStyle: req.Style, Language: req.Language})
		src = job.Source{Kind: job.KindExternalVideo, URL: req.URL}
	} else {
		sub, err = e.backend.SubmitFile(ctx, api.FileRequest{Path: req.FilePath, SummaryStyle: req.Style, Language: req.Language})
		src = job.Source{Kind: job.KindUpload, Filename: filepath.Base(req.FilePath)}
	}
	if err != nil {
		return job.Job{}, fmt.Errorf("submit job: %w", err)
	}

	j, err := job.New(sub.JobID)
	if err != nil {
		return job.Job{}, fmt.Errorf("submit job: %w", err)
	}
	j.Source = src
	e.logger.Info("submitted job %s (%s, style=%s, language=%s)", j.ID, src.Label(), req.Style, req.Language)
	e.sched.Start(j)
	return j, nil
}

// Attach re-enters tracking for an existing job, as when a history entry is
// selected: done jobs fetch their result, failed jobs surface their error,
// anything else resumes polling.
func (e *Engine) Attach(ctx context.Context, jobID string) (job.Job, error) {
	status, err := e.backend.JobStatus(ctx, jobID)
	if err != nil {
		return job.Job{}, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	j := job.FromStatus(status)
	if j.Status == job.StatusNone {
		return job.Job{}, fmt.Errorf("fetch job %s: unknown status %q", jobID, status.Status)
	}
	if j.ID == "" {
		j.ID = jobID
	}
	e.logger.Info("attached to job %s (%s)", j.ID, j.Status)
	e.sched.Start(j)
	return j, nil
}

// Retry asks the server to requeue a failed job and resumes tracking it.
func (e *Engine) Retry(ctx context.Context, jobID string) (job.Job, error) {
	status, err := e.backend.Retry(ctx, jobID)
	if err != nil {
		return job.Job{}, fmt.Errorf("retry job %s: %w", jobID, err)
	}

	snap := e.store.Snapshot()
	var j job.Job
	if snap.HasJob && snap.Job.ID == jobID && snap.Job.Status == job.StatusError {
		j = snap.Job
		if err := j.Retry(); err != nil {
			return job.Job{}, err
		}
	} else {
		j, err = job.New(jobID)
		if err != nil {
			return job.Job{}, err
		}
	}
	e.logger.Info("retried job %s (server status %s)", jobID, status)
	e.sched.Start(j)
	return j, nil
}

// Cancel asks the server to stop a job. Tracking stops if the job is the
// one being tracked. It returns the server's status string.
func (e *Engine) Cancel(ctx context.Context, jobID string) (string, error) {
	status, err := e.backend.Cancel(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("cancel job %s: %w", jobID, err)
	}
	if id, ok := e.sched.Tracking(); ok && id == jobID {
		e.sched.Stop()
		snap := e.store.Snapshot()
		j := snap.Job
		if err := j.Apply(api.JobStatus{JobID: jobID, Status: status}); err == nil {
			e.store.SetJob(j)
		}
	}
	e.logger.Info("cancel requested for job %s: %s", jobID, status)
	return status, nil
}

// Wait blocks until the current tracking session ends and returns the final
// snapshot with the session's outcome.
func (e *Engine) Wait(ctx context.Context) (state.Snapshot, error) {
	err := e.sched.Wait(ctx)
	return e.store.Snapshot(), err
}

// Stop abandons the current tracking session without touching the server.
func (e *Engine) Stop() {
	e.sched.Stop()
}

// Close stops tracking and aborts in-flight requests.
func (e *Engine) Close() {
	e.sched.Close()
}

// Result fetches and projects the result of a finished job without
// tracking it.
func (e *Engine) Result(ctx context.Context, jobID string) (result.View, error) {
	status, err := e.backend.JobStatus(ctx, jobID)
	if err != nil {
		return result.View{}, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	j := job.FromStatus(status)
	if j.Status == job.StatusError {
		return result.View{}, j.Failure
	}
	payload, err := e.backend.Result(ctx, jobID)
	if err != nil {
		return result.View{}, fmt.Errorf("fetch result %s: %w", jobID, err)
	}
	return result.Project(payload, j.Source), nil
}

// History returns up to limit merged history entries.
func (e *Engine) History(ctx context.Context, limit int) (history.View, error) {
	return e.history.Load(ctx, limit)
}

// LocalHistory returns only the locally cached entries.
func (e *Engine) LocalHistory(ctx context.Context) ([]history.Entry, error) {
	return e.history.Local(ctx)
}

// Register creates an account and signs in as it.
func (e *Engine) Register(ctx context.Context, username, password string) error {
	return e.signIn(ctx, username, password, e.backend.Register)
}

// Login signs in, replacing any stored credential.
func (e *Engine) Login(ctx context.Context, username, password string) error {
	return e.signIn(ctx, username, password, e.backend.Login)
}

type authFunc func(ctx context.Context, username, password string) (api.Credentials, error)

func (e *Engine) signIn(ctx context.Context, username, password string, call authFunc) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &InputError{Field: "username", Reason: "required"}
	}
	if password == "" {
		return &InputError{Field: "password", Reason: "required"}
	}
	creds, err := call(ctx, username, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	e.sched.Stop()
	if err := e.session.set(ctx, creds.APIKey, creds.Username); err != nil {
		return err
	}
	e.logger.Info("signed in as %s", creds.Username)
	return nil
}

// Logout forgets the credential and stops tracking.
func (e *Engine) Logout(ctx context.Context) error {
	e.sched.Stop()
	if err := e.session.clear(ctx); err != nil {
		return err
	}
	e.logger.Info("signed out")
	return nil
}

// RotateKey replaces the credential with a fresh one from the server.
func (e *Engine) RotateKey(ctx context.Context) error {
	if !e.session.LoggedIn() {
		return &InputError{Field: "credential", Reason: "not logged in"}
	}
	key, err := e.backend.RotateKey(ctx)
	if err != nil {
		return fmt.Errorf("rotate key: %w", err)
	}
	if err := e.session.set(ctx, key, ""); err != nil {
		return err
	}
	e.logger.Info("rotated api key")
	return nil
}

// finish is the scheduler's done hook: exactly one result fetch, then the
// projection and the local history append.
func (e *Engine) finish(ctx context.Context, j job.Job) error {
	payload, err := e.backend.Result(ctx, j.ID)
	if err != nil {
		e.logger.Error("fetch result for %s: %v", j.ID, err)
		return fmt.Errorf("fetch result %s: %w", j.ID, err)
	}
	view := result.Project(payload, j.Source)
	e.store.RecordResult(view)

	entry := history.EntryFromJob(j, e.clock.Now())
	entry.Source = view.Source.Label()
	if err := e.history.Record(ctx, entry); err != nil {
		e.logger.Warn("record history for %s: %v", j.ID, err)
	}
	return nil
}

func (e *Engine) maxUploadMB(ctx context.Context) int {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	if e.serverCfg != nil {
		return e.serverCfg.MaxUploadMB
	}
	cfg, err := e.backend.ServerConfig(ctx)
	if err != nil {
		e.logger.Warn("fetch server config: %v", err)
		return 0
	}
	e.serverCfg = &cfg
	return cfg.MaxUploadMB
}

// IsInputError reports whether err is an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
