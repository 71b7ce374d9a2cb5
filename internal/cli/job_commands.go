package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/summit/internal/app"
	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/result"
	"github.com/five82/summit/internal/state"
	"github.com/five82/summit/internal/tracker"
)

func runSubmit(c *command, args []string) error {
	fs := c.flags("submit")
	url := fs.String("url", "", "YouTube URL to summarize")
	file := fs.String("file", "", "local media file to upload")
	style := fs.String("style", "", "summary style: short|medium|detailed (default from prefs)")
	lang := fs.String("lang", "", "spoken language code or auto (default from prefs)")
	noWait := fs.Bool("no-wait", false, "print the job id and exit without tracking")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	req := tracker.Request{
		URL:      *url,
		FilePath: *file,
		Style:    firstNonEmpty(*style, a.Prefs.SummaryStyle),
		Language: firstNonEmpty(*lang, a.Prefs.Language),
	}
	j, err := a.Engine.Submit(c.ctx, req)
	if err != nil {
		return err
	}
	c.printf("submitted %s (%s)\n", j.ID, j.Source.Label())
	if *noWait {
		a.Engine.Stop()
		c.printf("track it later with: summit watch %s\n", j.ID)
		return nil
	}
	return c.track(a)
}

func runWatch(c *command, args []string) error {
	positional, err := parseArgs(c.flags("watch"), args)
	if err != nil {
		return err
	}
	id, err := requireID("watch", positional)
	if err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Engine.Attach(c.ctx, id); err != nil {
		return err
	}
	return c.track(a)
}

func runRetry(c *command, args []string) error {
	fs := c.flags("retry")
	noWait := fs.Bool("no-wait", false, "requeue and exit without tracking")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("retry", positional)
	if err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Engine.Retry(c.ctx, id); err != nil {
		return err
	}
	c.printf("requeued %s\n", id)
	if *noWait {
		a.Engine.Stop()
		return nil
	}
	return c.track(a)
}

func runCancel(c *command, args []string) error {
	positional, err := parseArgs(c.flags("cancel"), args)
	if err != nil {
		return err
	}
	id, err := requireID("cancel", positional)
	if err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Engine.Cancel(c.ctx, id)
	if err != nil {
		return err
	}
	c.printf("%s: %s\n", id, status)
	return nil
}

func runStatus(c *command, args []string) error {
	fs := c.flags("status")
	jsonOut := fs.Bool("json", false, "print the raw status as JSON")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("status", positional)
	if err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Client.JobStatus(c.ctx, id)
	if err != nil {
		return fmt.Errorf("fetch job %s: %w", id, err)
	}
	if *jsonOut {
		return printJSON(c.streams.Out, status)
	}
	j := job.FromStatus(status)
	if j.ID == "" {
		j.ID = id
	}
	c.printf("%s %s\n", heading("Job"), j.ID)
	c.printf("source:   %s (%s)\n", j.Source.Label(), j.Source.Kind)
	c.printf("status:   %s\n", displayStatus(j))
	c.printf("progress: %s\n", j.ProgressLabel())
	c.printf("created:  %s\n", relativeTime(status.ParsedCreatedAt()))
	if j.Failure != nil {
		c.printf("error:    %s\n", j.Failure.Error())
		if j.CanRetry() {
			c.printf("retry with: summit retry %s\n", j.ID)
		}
	}
	return nil
}

// track prints one line per state change until the session ends, then the
// result or the failure.
func (c *command) track(a *app.App) error {
	last := ""
	app.Follow(c.ctx, a.Engine, 0, func(s state.Snapshot) {
		if line := statusLine(s); line != last {
			c.println(line)
			last = line
		}
	})

	snap, err := a.Engine.Wait(c.ctx)
	switch {
	case err == nil:
	case c.ctx.Err() != nil:
		return fmt.Errorf("interrupted; resume with: summit watch %s", snap.Job.ID)
	default:
		var failure *job.Failure
		if errors.As(err, &failure) && failure.Retryable {
			c.warnf("retry with: summit retry %s\n", snap.Job.ID)
		}
		return err
	}
	if snap.HasResult {
		c.println()
		fmt.Fprint(c.streams.Out, result.PlainText(snap.Result))
	}
	return nil
}

func statusLine(s state.Snapshot) string {
	if !s.HasJob {
		return "idle"
	}
	j := s.Job
	parts := []string{j.ID, displayStatus(j)}
	if !j.Terminal() {
		parts = append(parts, j.ProgressLabel())
	}
	if err := s.ConnectivityError(); err != nil {
		parts = append(parts, fmt.Sprintf("offline (%d failed polls): %v", s.ConsecutiveFailures, err))
	}
	if s.Tracking && !j.Terminal() && s.Delay > 0 {
		parts = append(parts, "next poll in "+s.Delay.Round(100*time.Millisecond).String())
	}
	return strings.Join(parts, "  ")
}

func displayStatus(j job.Job) string {
	if j.Status == job.StatusError && j.Failure != nil {
		return "error: " + j.Failure.Message
	}
	if j.Status == job.StatusNone {
		return "unknown"
	}
	return string(j.Status)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
