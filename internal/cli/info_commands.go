package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/summit/internal/config"
	"github.com/five82/summit/internal/history"
	"github.com/five82/summit/internal/logtail"
	"github.com/five82/summit/internal/prefs"
	"github.com/five82/summit/internal/ui"
)

func runConfig(c *command, args []string) error {
	fs := c.flags("config")
	jsonOut := fs.Bool("json", false, "print JSON output")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	maxMB := 0
	serverErr := ""
	if cfg, err := a.Client.ServerConfig(c.ctx); err != nil {
		serverErr = err.Error()
	} else {
		maxMB = cfg.MaxUploadMB
	}

	cfg := a.Config
	if *jsonOut {
		return printJSON(c.streams.Out, map[string]any{
			"api_url":          cfg.APIURL,
			"data_dir":         cfg.DataDir,
			"store":            cfg.StorePath(),
			"log":              cfg.LogPath(),
			"history_capacity": cfg.HistoryCapacity,
			"poll": map[string]any{
				"base_seconds":        cfg.Poll.Base.Seconds(),
				"growth":              cfg.Poll.Growth,
				"max_seconds":         cfg.Poll.Max.Seconds(),
				"failure_max_seconds": cfg.Poll.FailureMax.Seconds(),
				"failure_threshold":   cfg.Poll.FailureThreshold,
			},
			"summary_style": a.Prefs.SummaryStyle,
			"language":      a.Prefs.Language,
			"max_upload_mb": maxMB,
		})
	}

	c.println(heading("Client"))
	c.printf("api_url:          %s\n", cfg.APIURL)
	c.printf("store:            %s\n", cfg.StorePath())
	c.printf("log:              %s\n", cfg.LogPath())
	c.printf("history capacity: %d\n", cfg.HistoryCapacity)
	c.printf("poll:             %s base, x%.2g growth, %s max, %s max offline, offline after %d failures\n",
		cfg.Poll.Base, cfg.Poll.Growth, cfg.Poll.Max, cfg.Poll.FailureMax, cfg.Poll.FailureThreshold)
	c.printf("defaults:         style=%s language=%s theme=%s\n", a.Prefs.SummaryStyle, a.Prefs.Language, a.Prefs.Theme)
	c.println()
	c.println(heading("Server"))
	if serverErr != "" {
		c.printf("unavailable: %s\n", serverErr)
		return nil
	}
	c.printf("max upload:       %s\n", megabytes(maxMB))
	return nil
}

func runHealth(c *command, args []string) error {
	if _, err := parseArgs(c.flags("health"), args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Client.Health(c.ctx); err != nil {
		return fmt.Errorf("health check %s: %w", a.Client.BaseURL(), err)
	}
	c.printf("%s: ok\n", a.Client.BaseURL())
	return nil
}

func runHistory(c *command, args []string) error {
	fs := c.flags("history")
	local := fs.Bool("local", false, "only show the local cache")
	limit := fs.Int("limit", 20, "maximum entries from the server")
	jsonOut := fs.Bool("json", false, "print JSON output")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	var entries []history.Entry
	if *local {
		entries, err = a.Engine.LocalHistory(c.ctx)
		if err != nil {
			return err
		}
	} else {
		view, err := a.Engine.History(c.ctx, *limit)
		if err != nil {
			return err
		}
		if view.RemoteErr != nil {
			c.warnf("remote history unavailable: %v\n", view.RemoteErr)
		}
		entries = view.Entries
	}

	if *jsonOut {
		if entries == nil {
			entries = []history.Entry{}
		}
		return printJSON(c.streams.Out, entries)
	}
	if len(entries) == 0 {
		c.println("no jobs yet")
		return nil
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TYPE", "CREATED", "SOURCE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headingStyle.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
	for _, e := range entries {
		t.Row(e.ID, string(e.Type), relativeTime(e.CreatedAt), e.Source)
	}
	c.println(t.String())
	return nil
}

func runLogs(c *command, args []string) error {
	fs := c.flags("logs")
	lines := fs.Int("n", 50, "number of lines (0 for all)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := config.LoadEnvFile(c.global.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.global.config)
	if err != nil {
		return err
	}
	path := cfg.LogPath()

	out, err := logtail.Read(path, *lines)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		c.printf("no log entries in %s\n", path)
		return nil
	}
	for _, line := range logtail.ColorizeLines(out, logtail.DefaultStyles()) {
		c.println(line)
	}
	return nil
}

func runTUI(c *command, args []string) error {
	if _, err := parseArgs(c.flags("tui"), args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	account := "not logged in"
	if a.Session.LoggedIn() {
		account = firstNonEmpty(a.Session.Username(), "api key") + " @ " + a.Client.BaseURL()
	}
	return ui.Run(ui.Options{
		Context:   c.ctx,
		Tracker:   a.Engine,
		Prefs:     a.Prefs,
		PrefsPath: firstNonEmpty(c.global.prefs, prefs.DefaultPath()),
		Account:   account,
	})
}
