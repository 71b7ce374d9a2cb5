// Package history merges the server's job list with a small local cache.
//
// # Overview
//
// Two sources describe past jobs. The server list is authoritative and
// paginated; it is only reachable with a credential. The local cache lives
// in the kvstore under the "history" key, holds at most 5 to 10 entries
// (newest first, unique by id) and is written every time a job finishes,
// whether or not the server list is usable. That keeps it a valid fallback.
//
// # Load
//
//	credential? ──no──→ local only (RemoteErr = ErrNoCredential)
//	     │yes
//	fetch pages ──fail──→ local only (RemoteErr = cause)
//	     │ok
//	Merge(remote, local)
//
// Merge collapses entries by id with remote fields winning, then orders the
// view newest first. Concurrent Load calls are coalesced with singleflight
// so a TUI refresh and a CLI call never fetch twice.
//
// # Record
//
// Record is the only path that mutates the local cache. It moves the entry
// to the front, drops any older copy and evicts from the tail.
package history
