// Package ui provides the interactive terminal tracker behind `summit tui`.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model. It never talks to the server on its
// own schedule: the tracker engine owns the poll loop, and the model only
// re-reads the engine's state.Snapshot on a short tick and re-renders.
// User actions (submit, open from history, retry, cancel) run as tea.Cmds
// against the Tracker interface and report back with an actionMsg.
//
// # Package Structure
//
//   - app.go: Model, key handling and Run
//   - commands.go: messages and the tea.Cmds that call the engine
//   - view.go: rendering of the header, tracker, history, help and result
//   - keys.go: key bindings (bubbles/key)
//   - theme.go: Dracula and Slate palettes (lipgloss)
//
// # Views
//
//   - Tracker: source input (bubbles/textinput), the current job with a
//     status badge and progress bar (bubbles/progress), and the projected
//     result in a scrollable pane (bubbles/viewport)
//   - History: merged server and local history; enter re-attaches to the
//     selected job through Engine.Attach
//
// Progress is shown only when the server reported a number; otherwise the
// job reads "progress unknown" rather than 0%. After three failed polls in
// a row the header shows an OFFLINE badge until a poll succeeds again.
//
// # Preferences
//
// Cycling the theme (T) or the summary style (s) saves prefs.toml, so the
// next session and `summit submit` pick up the same defaults.
package ui
