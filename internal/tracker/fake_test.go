package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/clock"
	"github.com/five82/summit/internal/history"
	"github.com/five82/summit/internal/kvstore"
)

type step struct {
	status api.JobStatus
	err    error
}

// fakeBackend scripts status responses per job. The last step repeats once
// the script is exhausted.
type fakeBackend struct {
	mu          sync.Mutex
	steps       map[string][]step
	results     map[string]api.ResultPayload
	resultErr   error
	statusCalls map[string]int
	resultCalls map[string]int
	nextID      []string
	submitErr   error
	retryStatus string
	retryErr    error
	cancelCalls []string
	cancelState string
	maxUploadMB int
	configCalls int
	creds       api.Credentials
	rotated     string

	// gate, when set, blocks JobStatus for gateJob until closed.
	gate    chan struct{}
	gateJob string
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		steps:       map[string][]step{},
		results:     map[string]api.ResultPayload{},
		statusCalls: map[string]int{},
		resultCalls: map[string]int{},
		retryStatus: api.StatusQueued,
		cancelState: api.StatusCancelled,
		maxUploadMB: 250,
		creds:       api.Credentials{APIKey: "key-1", Username: "alice"},
		rotated:     "key-2",
	}
}

func (f *fakeBackend) script(jobID string, steps ...step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[jobID] = steps
}

func (f *fakeBackend) statusCount(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[jobID]
}

func (f *fakeBackend) resultCount(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resultCalls[jobID]
}

func (f *fakeBackend) SubmitURL(_ context.Context, _ api.URLRequest) (api.Submission, error) {
	return f.submit()
}

func (f *fakeBackend) SubmitFile(_ context.Context, _ api.FileRequest) (api.Submission, error) {
	return f.submit()
}

func (f *fakeBackend) submit() (api.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return api.Submission{}, f.submitErr
	}
	if len(f.nextID) == 0 {
		return api.Submission{}, errors.New("no job id scripted")
	}
	id := f.nextID[0]
	f.nextID = f.nextID[1:]
	return api.Submission{JobID: id, Status: api.StatusQueued}, nil
}

func (f *fakeBackend) JobStatus(_ context.Context, jobID string) (api.JobStatus, error) {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	gated := gate != nil && f.gateJob == jobID
	f.mu.Unlock()
	if gated {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls[jobID]++
	steps := f.steps[jobID]
	if len(steps) == 0 {
		return api.JobStatus{}, &api.RejectedError{Path: "/v1/jobs/" + jobID, StatusCode: 404, Detail: "Job not found"}
	}
	s := steps[0]
	if len(steps) > 1 {
		f.steps[jobID] = steps[1:]
	}
	if s.status.JobID == "" && s.err == nil {
		s.status.JobID = jobID
	}
	return s.status, s.err
}

func (f *fakeBackend) Result(_ context.Context, jobID string) (api.ResultPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCalls[jobID]++
	if f.resultErr != nil {
		return api.ResultPayload{}, f.resultErr
	}
	return f.results[jobID], nil
}

func (f *fakeBackend) Retry(_ context.Context, _ string) (string, error) {
	return f.retryStatus, f.retryErr
}

func (f *fakeBackend) Cancel(_ context.Context, jobID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, jobID)
	return f.cancelState, nil
}

func (f *fakeBackend) ListJobs(_ context.Context, _, _ int) ([]api.JobStatus, error) {
	return nil, nil
}

func (f *fakeBackend) Register(_ context.Context, _, _ string) (api.Credentials, error) {
	return f.creds, nil
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (api.Credentials, error) {
	if password != "secret" {
		return api.Credentials{}, &api.RejectedError{Path: "/v1/auth/login", StatusCode: 401, Detail: "Invalid credentials"}
	}
	return f.creds, nil
}

func (f *fakeBackend) RotateKey(_ context.Context) (string, error) {
	return f.rotated, nil
}

func (f *fakeBackend) ServerConfig(_ context.Context) (api.ServerConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configCalls++
	return api.ServerConfig{MaxUploadMB: f.maxUploadMB}, nil
}

func pct(v float64) *float64 { return &v }

func running(progress *float64) step {
	return step{status: api.JobStatus{Status: api.StatusRunning, Progress: progress}}
}

func done() step {
	return step{status: api.JobStatus{Status: api.StatusDone, Progress: pct(100)}}
}

func unreachable() step {
	return step{err: &api.UnreachableError{Path: "/v1/jobs/x", Cause: errors.New("connection refused")}}
}

type harness struct {
	engine  *Engine
	backend *fakeBackend
	clock   *clock.Fake
	kv      *kvstore.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv, err := kvstore.Open(t.TempDir() + "/summit.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	backend := newFakeBackend()
	session, err := LoadSession(context.Background(), kv, "http://test", "")
	require.NoError(t, err)
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	engine, err := NewEngine(Options{
		Backend: backend,
		Session: session,
		History: history.NewReconciler(backend, kv, session.LoggedIn, history.WithCapacity(5)),
		Clock:   clk,
		Policy:  DefaultPolicy(),
	})
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return &harness{engine: engine, backend: backend, clock: clk, kv: kv}
}

// tick fires the pending timer and waits for the loop to arm the next one.
func (h *harness) tick(t *testing.T) time.Duration {
	t.Helper()
	armed := len(h.clock.Armed())
	h.clock.Advance(h.clock.Armed()[armed-1])
	h.clock.BlockUntilArmed(armed + 1)
	got := h.clock.Armed()
	return got[len(got)-1]
}

// last fires the pending timer of a poll expected to end the loop.
func (h *harness) last(t *testing.T) {
	t.Helper()
	armed := h.clock.Armed()
	h.clock.Advance(armed[len(armed)-1])
}

func (h *harness) submitURL(t *testing.T, id string) {
	t.Helper()
	h.backend.mu.Lock()
	h.backend.nextID = append(h.backend.nextID, id)
	h.backend.mu.Unlock()
	before := len(h.clock.Armed())
	_, err := h.engine.Submit(context.Background(), Request{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	require.NoError(t, err)
	h.clock.BlockUntilArmed(before + 1)
}
