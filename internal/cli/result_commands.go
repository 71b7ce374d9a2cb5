package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/result"
)

func runResult(c *command, args []string) error {
	fs := c.flags("result")
	text := fs.Bool("text", false, "plain text (default)")
	markdown := fs.Bool("markdown", false, "markdown rendering")
	jsonOut := fs.Bool("json", false, "projected view as JSON")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("result", positional)
	if err != nil {
		return err
	}
	if countTrue(*text, *markdown, *jsonOut) > 1 {
		return errors.New("choose one of --text, --markdown, --json")
	}

	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := a.Engine.Result(c.ctx, id)
	if err != nil {
		if api.StatusCode(err) == 409 {
			return fmt.Errorf("job %s is not finished yet; follow it with: summit watch %s", id, id)
		}
		return err
	}
	switch {
	case *jsonOut:
		return printJSON(c.streams.Out, view)
	case *markdown:
		fmt.Fprint(c.streams.Out, result.Markdown(view))
	default:
		fmt.Fprint(c.streams.Out, result.PlainText(view))
	}
	return nil
}

func runExport(c *command, args []string) error {
	fs := c.flags("export")
	format := fs.String("format", api.FormatMarkdown, "export format: md|pdf|docx")
	template := fs.String("template", "", "server-side markdown template name")
	outDir := fs.String("out", ".", "directory to write the export into")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("export", positional)
	if err != nil {
		return err
	}

	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	att, err := a.Client.Export(c.ctx, id, strings.ToLower(strings.TrimSpace(*format)), *template)
	if err != nil {
		return fmt.Errorf("export job %s: %w", id, err)
	}
	name := filepath.Base(att.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("summary-%s.%s", id, *format)
	}
	path := filepath.Join(*outDir, name)
	if err := writeFileAtomic(path, att.Data); err != nil {
		return err
	}
	c.printf("wrote %s (%d bytes)\n", path, len(att.Data))
	return nil
}

func countTrue(values ...bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}
