// Package state provides thread-safe tracking state for the summit client.
//
// # Overview
//
// The Store is the coordination point between the poll loop that drives a
// job and the observers that render it (the CLI watch command and the TUI).
// The loop is the single writer; observers read Snapshots whenever they
// redraw.
//
//	Writer (tracker loop):          Readers (CLI / TUI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ Begin(job, delay)    │        │                  │
//	│ RecordPoll / Failure │───────→│ store.Snapshot() │
//	│ RecordResult         │ (lock) │      ↓           │
//	│ Stop(err)            │        │  render          │
//	└──────────────────────┘        └──────────────────┘
//
// # Update Semantics
//
// Begin replaces the whole snapshot; it is called whenever a new session
// starts (submit, retry, attach). RecordPoll clears the failure counter and
// last error. RecordFailure keeps the previous job data and only bumps the
// counter, so observers always show the most recent successful status while
// being told the connection is flaky.
//
//	store.RecordFailure(err, delay)
//	→ snapshot.Job = <unchanged>
//	→ snapshot.ConsecutiveFailures++
//	→ snapshot.LastError = err
//
// IsOffline reports whether the failure count reached the configured
// threshold (3 by default). ConnectivityError only returns the error once
// that threshold is reached, so a single blip is never surfaced.
//
// # Defensive Copying
//
// Snapshot copies the progress pointer, the failure and the last error so
// readers cannot mutate the writer's state.
//
// # Testing Considerations
//
// The zero Store is ready to use. SetClock pins LastUpdated for tests that
// compare snapshots.
package state
