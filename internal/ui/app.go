package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/summit/internal/history"
	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/prefs"
	"github.com/five82/summit/internal/state"
	"github.com/five82/summit/internal/tracker"
)

// View represents the current active view.
type View int

const (
	ViewTracker View = iota
	ViewHistory
)

var styleOrder = []string{tracker.StyleShort, tracker.StyleMedium, tracker.StyleDetailed}

// Tracker is the part of the engine the UI drives. *tracker.Engine
// implements it.
type Tracker interface {
	Submit(ctx context.Context, req tracker.Request) (job.Job, error)
	Attach(ctx context.Context, jobID string) (job.Job, error)
	Retry(ctx context.Context, jobID string) (job.Job, error)
	Cancel(ctx context.Context, jobID string) (string, error)
	History(ctx context.Context, limit int) (history.View, error)
	Snapshot() state.Snapshot
}

var _ Tracker = (*tracker.Engine)(nil)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Tracker      Tracker
	Prefs        prefs.Prefs
	PrefsPath    string
	Account      string // shown in the header
	PollTick     time.Duration
	HistoryLimit int
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx          context.Context
	tracker      Tracker
	prefs        prefs.Prefs
	prefsPath    string
	account      string
	pollTick     time.Duration
	historyLimit int
	keys         keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	editing     bool
	showHelp    bool
	busy        bool

	// Tracker state
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	result   viewport.Model
	snapshot state.Snapshot
	shownFor time.Time // LastUpdated of the snapshot rendered into result

	// History state
	history     []history.Entry
	historyErr  error
	selectedRow int

	notice    string
	noticeErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = 250 * time.Millisecond
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = 20
	}
	p := opts.Prefs
	if p.SummaryStyle == "" {
		p.SummaryStyle = tracker.StyleMedium
	}
	if p.Language == "" {
		p.Language = tracker.LanguageAuto
	}

	in := textinput.New()
	in.Placeholder = "YouTube URL or path to a media file"
	in.Prompt = "› "
	in.CharLimit = 2048

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		ctx:          ctx,
		tracker:      opts.Tracker,
		prefs:        p,
		prefsPath:    opts.PrefsPath,
		account:      opts.Account,
		pollTick:     pollTick,
		historyLimit: limit,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(p.Theme),
		currentView:  ViewTracker,
		input:        in,
		spinner:      sp,
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		result:       viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.tracker != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.tracker), loadHistoryCmd(m.ctx, m.tracker, m.historyLimit))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.tracker != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.tracker))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		return m.applySnapshot(state.Snapshot(msg))

	case historyMsg:
		m.history = msg.view.Entries
		m.historyErr = msg.view.RemoteErr
		if msg.err != nil {
			m.historyErr = msg.err
		}
		m.selectedRow = min(m.selectedRow, max(len(m.history)-1, 0))
		return m, nil

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.setNotice(msg.action+" failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setNotice(msg.done, false)
		if msg.showTracker {
			m.currentView = ViewTracker
			m.result.SetContent("")
			m.shownFor = time.Time{}
		}
		return m, fetchSnapshotCmd(m.tracker)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.editing {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewTracker {
			m.currentView = ViewHistory
			return m, loadHistoryCmd(m.ctx, m.tracker, m.historyLimit)
		}
		m.currentView = ViewTracker
		return m, nil
	}

	switch m.currentView {
	case ViewHistory:
		return m.handleHistoryKey(msg)
	default:
		return m.handleTrackerKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Escape):
		m.editing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.input.Value())
		if value == "" || m.busy {
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.busy = true
		m.setNotice("submitting...", false)
		return m, submitCmd(m.ctx, m.tracker, m.request(value))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleTrackerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.snapshot
	switch {
	case key.Matches(msg, m.keys.Edit):
		m.editing = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.CycleStyle):
		m.prefs.SummaryStyle = nextStyle(m.prefs.SummaryStyle)
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if !snap.HasJob || !snap.Job.CanRetry() || m.busy {
			return m, nil
		}
		m.busy = true
		return m, retryCmd(m.ctx, m.tracker, snap.Job.ID)

	case key.Matches(msg, m.keys.Cancel):
		if !snap.Tracking || snap.Job.Terminal() || m.busy {
			return m, nil
		}
		m.busy = true
		return m, cancelCmd(m.ctx, m.tracker, snap.Job.ID)

	case key.Matches(msg, m.keys.Up):
		m.result.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.result.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.result.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.result.HalfPageDown()
	case key.Matches(msg, m.keys.Top):
		m.result.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.result.GotoBottom()
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.history)
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, loadHistoryCmd(m.ctx, m.tracker, m.historyLimit)
	case count == 0:
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.Open):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, attachCmd(m.ctx, m.tracker, m.history[m.selectedRow].ID)
	}
	return m, nil
}

// applySnapshot stores a fresh snapshot, refreshing the result pane when a
// new result arrived and the history when a session ended.
func (m Model) applySnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	prev := m.snapshot
	m.snapshot = snap

	var cmds []tea.Cmd
	if snap.HasResult && !snap.LastUpdated.Equal(m.shownFor) {
		m.result.SetContent(renderResult(snap.Result, m.theme.Styles(), m.result.Width))
		m.result.GotoTop()
		m.shownFor = snap.LastUpdated
	}
	if prev.Tracking && !snap.Tracking {
		cmds = append(cmds, loadHistoryCmd(m.ctx, m.tracker, m.historyLimit))
	}
	if snap.HasJob && snap.Job.Progress != nil {
		cmds = append(cmds, m.progress.SetPercent(float64(*snap.Job.Progress)/100))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) request(value string) tracker.Request {
	req := tracker.Request{Style: m.prefs.SummaryStyle, Language: m.prefs.Language}
	if looksLikeURL(value) {
		req.URL = value
	} else {
		req.FilePath = value
	}
	return req
}

func (m *Model) layout() {
	w := max(m.width-4, 20)
	m.input.Width = max(w-4, 10)
	m.progress.Width = min(w-20, 60)
	m.result.Width = w
	m.result.Height = max(m.height-headerHeight-trackerPanelHeight-footerHeight-2, 3)
	if m.snapshot.HasResult {
		m.result.SetContent(renderResult(m.snapshot.Result, m.theme.Styles(), m.result.Width))
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.setNotice("save preferences: "+err.Error(), true)
	}
}

func nextStyle(current string) string {
	for i, s := range styleOrder {
		if s == current {
			return styleOrder[(i+1)%len(styleOrder)]
		}
	}
	return tracker.StyleMedium
}

func looksLikeURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.Contains(lower, "youtube.com/") || strings.Contains(lower, "youtu.be/")
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
