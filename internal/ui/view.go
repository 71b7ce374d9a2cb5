package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/result"
)

const (
	headerHeight       = 1
	footerHeight       = 1
	trackerPanelHeight = 9 // input panel (3) + job panel (6)
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.currentView {
	case ViewHistory:
		b.WriteString(m.renderHistory())
	default:
		b.WriteString(m.renderTracker())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{styles.Logo.Render("summit")}
	if m.account != "" {
		parts = append(parts, m.account)
	}
	snap := m.snapshot
	switch {
	case snap.IsOffline():
		parts = append(parts, styles.StatusStyle("offline").Render("OFFLINE"))
	case snap.Tracking:
		parts = append(parts, m.spinner.View()+" tracking")
	}
	parts = append(parts, fmt.Sprintf("style %s · lang %s", m.prefs.SummaryStyle, m.prefs.Language))
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	hints := "i submit · s style · r retry · x cancel · tab history · ? help · q quit"
	if m.currentView == ViewHistory {
		hints = "j/k move · enter open · R reload · tab tracker · ? help · q quit"
	}
	if m.editing {
		hints = "enter submit · esc cancel"
	}
	line := hints
	if m.notice != "" {
		notice := styles.InfoText.Render(m.notice)
		if m.noticeErr {
			notice = styles.DangerText.Render(m.notice)
		}
		line = notice + "  " + hints
	}
	return styles.Footer.Width(m.width).Render(line)
}

func (m Model) renderTracker() string {
	styles := m.theme.Styles()
	panelWidth := max(m.width-2, 20)

	inputPanel := styles.Panel
	if m.editing {
		inputPanel = styles.FocusPanel
	}
	input := inputPanel.Width(panelWidth).Render(m.input.View())

	jobPanel := styles.Panel.Width(panelWidth).Height(trackerPanelHeight - 5).Render(m.renderJob(styles))

	resultBody := m.result.View()
	if !m.snapshot.HasResult {
		resultBody = styles.FaintText.Render("No result yet.")
	}
	resultPanel := styles.Panel.Width(panelWidth).Render(resultBody)

	return lipgloss.JoinVertical(lipgloss.Left, input, jobPanel, resultPanel)
}

func (m Model) renderJob(styles Styles) string {
	snap := m.snapshot
	if !snap.HasJob {
		return styles.MutedText.Render("Press i to summarize a YouTube URL or a media file.")
	}
	j := snap.Job

	status := string(j.Status)
	lines := []string{
		fmt.Sprintf("%s  %s", styles.StatusStyle(status).Render(strings.ToUpper(status)), styles.Text.Bold(true).Render(j.Source.Label())),
		styles.FaintText.Render("job " + j.ID),
	}

	switch {
	case j.Status == job.StatusError:
		msg := "processing failed"
		if j.Failure != nil {
			msg = j.Failure.Error()
		}
		line := styles.DangerText.Render(msg)
		if j.CanRetry() {
			line += styles.MutedText.Render("  (r to retry)")
		}
		lines = append(lines, line)
	case snap.StopError != nil:
		lines = append(lines, styles.DangerText.Render(snap.StopError.Error()))
	case j.Status == job.StatusDone:
		lines = append(lines, styles.SuccessText.Render("done"))
	case j.Progress != nil:
		lines = append(lines, m.progress.View()+" "+j.ProgressLabel())
	default:
		lines = append(lines, styles.MutedText.Render("progress unknown"))
	}

	if err := snap.ConnectivityError(); err != nil {
		lines = append(lines, styles.WarningText.Render(fmt.Sprintf("server unreachable (%d attempts): %v", snap.ConsecutiveFailures, err)))
	} else if snap.Tracking && !j.Terminal() {
		lines = append(lines, styles.FaintText.Render("next check in "+snap.Delay.String()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	panelWidth := max(m.width-2, 20)
	height := max(m.height-headerHeight-footerHeight-2, 3)

	var b strings.Builder
	if m.historyErr != nil {
		b.WriteString(styles.WarningText.Render("server history unavailable: " + m.historyErr.Error()))
		b.WriteString("\n")
	}
	if len(m.history) == 0 {
		b.WriteString(styles.MutedText.Render("No jobs yet."))
		return styles.Panel.Width(panelWidth).Height(height).Render(b.String())
	}

	// Keep the selection visible.
	visible := max(height-1, 1)
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := min(start+visible, len(m.history))

	for i := start; i < end; i++ {
		e := m.history[i]
		created := "-"
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		row := fmt.Sprintf("%-16s  %-14s  %-36s  %s", created, e.Type, e.ID, e.Source)
		row = truncate(row, panelWidth-2)
		if i == m.selectedRow {
			row = styles.Selected.Render(row)
		} else {
			row = styles.Text.Render(row)
		}
		b.WriteString(row)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return styles.Panel.Width(panelWidth).Height(height).Render(b.String())
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	sections := m.keys.sections()
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Press any key to close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.FocusPanel.Render(b.String()))
}

// renderResult lays out a result view for the result pane. Sections the
// server did not produce are omitted; the TL;DR always shows.
func renderResult(v result.View, styles Styles, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width, 20))
	title := styles.AccentText.Bold(true)

	var b strings.Builder
	section := func(name string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(title.Render(name))
		b.WriteString("\n")
	}

	section("TL;DR")
	b.WriteString(wrap.Render(v.TLDR))

	if v.HasKeyPoints {
		section("Key points")
		for _, p := range v.KeyPoints {
			b.WriteString(wrap.Render("• " + p))
			b.WriteString("\n")
		}
	}
	if v.HasOutline {
		section("Outline")
		for _, s := range v.Outline {
			b.WriteString(styles.Text.Bold(true).Render(s.Title))
			b.WriteString("\n")
			for _, p := range s.Points {
				b.WriteString(wrap.Render("  - " + p))
				b.WriteString("\n")
			}
		}
	}
	if v.HasActionItems {
		section("Action items")
		for _, item := range v.ActionItems {
			b.WriteString(wrap.Render("[ ] " + item))
			b.WriteString("\n")
		}
	}
	if v.HasTimestamps {
		section("Timestamps")
		for _, ts := range v.Timestamps {
			line := styles.WarningText.Render(ts.Time) + "  " + ts.Label
			if ts.Link != "" {
				line += "  " + styles.FaintText.Render(ts.Link)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	section("Transcript")
	if v.Language != "" {
		b.WriteString(styles.FaintText.Render("language: " + v.Language))
		b.WriteString("\n")
	}
	b.WriteString(wrap.Render(v.Transcript))
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > width-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
