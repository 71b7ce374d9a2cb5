package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/summit/internal/history"
	"github.com/five82/summit/internal/state"
	"github.com/five82/summit/internal/tracker"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type historyMsg struct {
	view history.View
	err  error
}

// actionMsg reports the outcome of a user action against the server.
type actionMsg struct {
	action      string // failed action, for the error notice
	done        string // notice on success
	showTracker bool
	err         error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(t Tracker) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(t.Snapshot())
	}
}

func loadHistoryCmd(ctx context.Context, t Tracker, limit int) tea.Cmd {
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		view, err := t.History(ctx, limit)
		return historyMsg{view: view, err: err}
	}
}

func submitCmd(ctx context.Context, t Tracker, req tracker.Request) tea.Cmd {
	return func() tea.Msg {
		j, err := t.Submit(ctx, req)
		return actionMsg{action: "submit", done: "submitted " + j.ID, showTracker: true, err: err}
	}
}

func attachCmd(ctx context.Context, t Tracker, id string) tea.Cmd {
	return func() tea.Msg {
		j, err := t.Attach(ctx, id)
		return actionMsg{action: "open " + id, done: "opened " + id + " (" + string(j.Status) + ")", showTracker: true, err: err}
	}
}

func retryCmd(ctx context.Context, t Tracker, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := t.Retry(ctx, id)
		return actionMsg{action: "retry " + id, done: "requeued " + id, showTracker: true, err: err}
	}
}

func cancelCmd(ctx context.Context, t Tracker, id string) tea.Cmd {
	return func() tea.Msg {
		status, err := t.Cancel(ctx, id)
		return actionMsg{action: "cancel " + id, done: id + ": " + status, err: err}
	}
}
