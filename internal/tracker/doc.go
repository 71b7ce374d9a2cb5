// Package tracker is the job tracking engine: submission, adaptive polling,
// terminal handling and session lifecycle.
//
// # Overview
//
// An Engine tracks at most one job at a time. Submit, Attach and Retry all
// seed a job.Job and hand it to the Scheduler, which runs a single poll
// loop until the job reaches done or error, the server rejects the status
// call, or a newer session replaces it.
//
//	Submit/Attach/Retry
//	        ↓
//	Scheduler.Start ──cancel + drain previous loop──┐
//	        ↓                                        │
//	  arm timer(delay) ←──────── Policy.Next ────────┤
//	        ↓                                        │
//	  JobStatus ──ok──→ job.Apply → store.RecordPoll ┘
//	        │  └─unreachable→ store.RecordFailure ───┘
//	        └─rejected→ stop with error
//	  done  → finish: Result → result.Project → history.Record
//	  error → stop with *job.Failure (no result fetch)
//
// # Poll Policy
//
// The first poll waits Policy.Base (2s). Forward progress, meaning a
// numeric progress above the highest value seen so far, resets the delay to
// Base. Anything else multiplies it by Growth (1.5) up to Max (15s).
// Transport failures grow it up to FailureMax (20s) instead and bump a
// counter; once the counter reaches FailureThreshold (3) the store reports
// the tracker offline, but polling continues and the next good response
// clears it.
//
// # Cancellation
//
// Each loop owns a cancellation token. Start cancels the previous token and
// waits for that loop to exit before arming anything, so only one timer is
// ever pending and polls never overlap. Requests run on the scheduler's
// base context rather than the token: a poll already in flight completes
// and its outcome is recorded, but the superseded loop exits instead of
// arming another timer. Close cancels the base context as well.
//
// # Session
//
// Session holds the server address, the credential and the username, and
// persists them in the kvstore. It implements api.KeySource so the client
// always sends the current key. Login, Register and Logout stop tracking;
// RotateKey swaps the key in place. SUMMIT_API_KEY overrides the stored key
// for one process without being written.
//
// # Input Validation
//
// Submit rejects bad input with *InputError before any network call: no or
// both sources, a non YouTube URL, an unsupported file type or size, an
// unknown summary style or a malformed language code.
//
// # Testing
//
// Tests drive the loop with clock.Fake and a scripted backend, so every
// delay and timer cancellation is asserted exactly.
package tracker
