// Package app wires summit's components together.
//
// # Overview
//
// Open is the composition root. It resolves configuration, opens the log
// file and the local store, restores the session and builds the tracking
// engine. Commands in internal/cli and the TUI in internal/ui only ever
// talk to the resulting App.
//
//	.env (godotenv) → config.Load → logging.OpenFile
//	                              → kvstore.Open → tracker.LoadSession
//	                                             → api.NewClient
//	                                             → history.NewReconciler
//	                                             → tracker.NewEngine
//
// # Options
//
// APIURL and LogLevel override whatever the file and environment said; the
// CLI maps its --api-url and --log-level flags onto them. LogWriter replaces
// the log file, which tests use to keep everything in memory.
//
// # Following a Job
//
// Follow re-reads the engine snapshot on a short ticker and hands every
// changed snapshot to a callback until tracking stops. It never touches the
// network; the tracker's own loop decides when to poll. The CLI watch
// command uses it to print one line per state change.
//
//	snap := app.Follow(ctx, a.Engine, 0, func(s state.Snapshot) {
//	    fmt.Println(s.Job.Status, s.Job.ProgressLabel())
//	})
//
// # Shutdown
//
// Close stops the poll loop, then closes the store and the log file. It is
// safe to call on a partially opened App.
package app
