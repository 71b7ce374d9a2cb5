// Package history reconciles the server's job list with the bounded local
// cache of finished jobs.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/kvstore"
	"github.com/five82/summit/internal/logging"
)

const (
	// DefaultCapacity bounds the local cache.
	DefaultCapacity = 10
	// MinCapacity and MaxCapacity clamp configured capacities.
	MinCapacity = 5
	MaxCapacity = 10

	defaultLimit = 20
	pageSize     = 50
)

// Entry is one row of job history.
type Entry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Type      job.Kind  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryFromStatus builds an entry from a remote job listing item.
func EntryFromStatus(s api.JobStatus) Entry {
	src := job.SourceFromMeta(s.SourceType, s.SourceMeta)
	return Entry{ID: s.JobID, Source: src.Label(), Type: src.Kind, CreatedAt: s.ParsedCreatedAt()}
}

// EntryFromJob builds an entry for a job that just finished.
func EntryFromJob(j job.Job, createdAt time.Time) Entry {
	kind := j.Source.Kind
	if kind == "" {
		kind = job.KindExternalVideo
	}
	return Entry{ID: j.ID, Source: j.Source.Label(), Type: kind, CreatedAt: createdAt}
}

// Lister fetches one page of remote history.
type Lister interface {
	ListJobs(ctx context.Context, limit, offset int) ([]api.JobStatus, error)
}

// Cache persists the local entries. *kvstore.Store satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	PutJSON(ctx context.Context, key string, value any) error
}

// View is the outcome of Load.
type View struct {
	Entries []Entry
	// Remote is true when the server list was fetched and merged.
	Remote bool
	// RemoteErr is the reason the server list could not be used, if any.
	RemoteErr error
}

// Reconciler produces the merged history view.
type Reconciler struct {
	remote        Lister
	cache         Cache
	hasCredential func() bool
	capacity      int
	logger        *logging.Logger

	group singleflight.Group
	mu    sync.Mutex // serialises Record's read-modify-write
}

// Option customises a Reconciler.
type Option func(*Reconciler)

// WithCapacity sets the local cache size, clamped to MinCapacity..MaxCapacity.
func WithCapacity(n int) Option {
	return func(r *Reconciler) { r.capacity = ClampCapacity(n) }
}

// WithLogger sets the logger used for cache problems.
func WithLogger(l *logging.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// ClampCapacity bounds n to the supported cache sizes. Non-positive values
// select DefaultCapacity.
func ClampCapacity(n int) int {
	switch {
	case n <= 0:
		return DefaultCapacity
	case n < MinCapacity:
		return MinCapacity
	case n > MaxCapacity:
		return MaxCapacity
	default:
		return n
	}
}

// NewReconciler wires a reconciler. hasCredential reports whether a remote
// fetch should be attempted at all.
func NewReconciler(remote Lister, cache Cache, hasCredential func() bool, opts ...Option) *Reconciler {
	r := &Reconciler{
		remote:        remote,
		cache:         cache,
		hasCredential: hasCredential,
		capacity:      DefaultCapacity,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capacity returns the local cache bound.
func (r *Reconciler) Capacity() int {
	return r.capacity
}

// Load returns up to limit remote entries merged with the local cache. When
// no credential is present or the remote fetch fails, only local entries are
// returned and the failure is reported in View.RemoteErr. Concurrent calls
// with the same limit share one fetch; cancelling one caller's ctx only
// abandons that caller's wait.
func (r *Reconciler) Load(ctx context.Context, limit int) (View, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan("load:"+strconv.Itoa(limit), func() (any, error) {
		return r.load(shared, limit)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return View{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return View{}, res.Err
	}
	view := res.Val.(View)
	view.Entries = append([]Entry(nil), view.Entries...)
	return view, nil
}

func (r *Reconciler) load(ctx context.Context, limit int) (View, error) {
	local, err := r.Local(ctx)
	if err != nil {
		return View{}, err
	}
	if r.remote == nil || r.hasCredential == nil || !r.hasCredential() {
		return View{Entries: local, RemoteErr: ErrNoCredential}, nil
	}
	remote, err := r.fetchRemote(ctx, limit)
	if err != nil {
		r.logger.Warn("history: remote fetch failed, using local cache: %v", err)
		return View{Entries: local, RemoteErr: err}, nil
	}
	return View{Entries: Merge(remote, local), Remote: true}, nil
}

// ErrNoCredential is reported in View.RemoteErr when no remote fetch was
// attempted.
var ErrNoCredential = errors.New("not logged in")

func (r *Reconciler) fetchRemote(ctx context.Context, limit int) ([]Entry, error) {
	var out []Entry
	for offset := 0; len(out) < limit; {
		size := min(pageSize, limit-len(out))
		items, err := r.remote.ListJobs(ctx, size, offset)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		for _, item := range items {
			if item.JobID == "" {
				continue
			}
			out = append(out, EntryFromStatus(item))
		}
		if len(items) < size {
			break
		}
		offset += len(items)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Local returns the cached entries, most recent first. A missing or
// unreadable cache yields an empty list.
func (r *Reconciler) Local(ctx context.Context) ([]Entry, error) {
	if r.cache == nil {
		return nil, nil
	}
	var entries []Entry
	err := r.cache.GetJSON(ctx, kvstore.KeyHistory, &entries)
	switch {
	case err == nil:
		return entries, nil
	case errors.Is(err, kvstore.ErrNotFound):
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.logger.Warn("history: discarding unreadable local cache: %v", err)
		return nil, nil
	}
}

// Record inserts or refreshes e at the front of the local cache, evicting
// the oldest entries beyond capacity.
func (r *Reconciler) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("history entry id required")
	}
	if r.cache == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.Local(ctx)
	if err != nil {
		return err
	}
	entries = Prepend(entries, e, r.capacity)
	if err := r.cache.PutJSON(ctx, kvstore.KeyHistory, entries); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Prepend returns entries with e at the front, any older copy of e removed,
// and the list truncated to capacity.
func Prepend(entries []Entry, e Entry, capacity int) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, e)
	for _, existing := range entries {
		if existing.ID != e.ID {
			out = append(out, existing)
		}
	}
	if capacity > 0 && len(out) > capacity {
		out = out[:capacity]
	}
	return out
}

// Merge collapses remote and local entries by id. Remote entries win every
// field they carry; a zero remote CreatedAt falls back to the local one. The
// result is ordered newest first, keeping input order for equal times.
func Merge(remote, local []Entry) []Entry {
	byID := make(map[string]int, len(remote)+len(local))
	out := make([]Entry, 0, len(remote)+len(local))
	for _, e := range remote {
		if _, dup := byID[e.ID]; dup {
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	for _, e := range local {
		if i, ok := byID[e.ID]; ok {
			if out[i].CreatedAt.IsZero() {
				out[i].CreatedAt = e.CreatedAt
			}
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
