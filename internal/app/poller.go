package app

import (
	"context"
	"time"

	"github.com/five82/summit/internal/state"
)

const defaultRefreshInterval = 250 * time.Millisecond

// SnapshotSource is anything that can report the current tracking state.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// Follow calls fn with every new snapshot, checking src at a fixed cadence,
// until tracking stops or ctx is cancelled. It only reads local state; the
// network is driven by the tracker's own loop. The first and final
// snapshots are always delivered.
func Follow(ctx context.Context, src SnapshotSource, interval time.Duration, fn func(state.Snapshot)) state.Snapshot {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Time
	first := true
	for {
		snap := src.Snapshot()
		if first || !snap.LastUpdated.Equal(last) || !snap.Tracking {
			first = false
			last = snap.LastUpdated
			fn(snap)
		}
		if !snap.Tracking {
			return snap
		}
		select {
		case <-ctx.Done():
			return src.Snapshot()
		case <-ticker.C:
		}
	}
}
