// Package logtail provides utilities for reading and colorizing summit's log file.
//
// # Overview
//
// summit writes its log to <data_dir>/summit.log so nothing interleaves with
// the terminal UI. `summit logs -n N` shows the tail of that file, coloured
// by level. This package implements the tail read and the colouring.
//
// # Reading Log Files
//
// Read uses a ring buffer sized to maxLines, so memory stays bounded no
// matter how large the file grows:
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//
// A non-positive maxLines returns the whole file. A missing file is not an
// error and yields no lines, since a fresh install has not logged anything
// yet. Lines longer than 1MB fail the scan with "read log".
//
// # Log Format
//
// Parse understands the format written by internal/logging:
//
//	[2025-10-08 21:01:05] [INFO] [engine.go:120] submitted job abc
//	 └ timestamp          └ level └ caller        └ message
//
// Only the first three bracketed fields are consumed, so brackets inside the
// message survive. Anything else (panics, stack traces) is passed through
// untouched by ColorizeLine.
//
// # Colorization
//
// Styles holds one lipgloss style per part plus one per level. DefaultStyles
// uses grey timestamps, blue callers and bold level colours:
//
//   - DEBUG: sky blue
//   - INFO: green
//   - WARN: gold
//   - ERROR: red
//
// lipgloss drops colour automatically when stdout is not a terminal, so
// piping `summit logs` into a file yields plain text.
package logtail
