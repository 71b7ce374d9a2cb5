package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed log line of the form
// "[2006-01-02 15:04:05] [LEVEL] [file.go:12] message".
type Entry struct {
	Time    string
	Level   string
	Caller  string
	Message string
}

// Parse splits a log line. ok is false for lines in any other shape.
func Parse(line string) (Entry, bool) {
	var fields [3]string
	rest := line
	for i := range fields {
		if !strings.HasPrefix(rest, "[") {
			return Entry{}, false
		}
		end := strings.Index(rest, "]")
		if end < 0 {
			return Entry{}, false
		}
		fields[i] = rest[1:end]
		rest = strings.TrimPrefix(rest[end+1:], " ")
	}
	return Entry{Time: fields[0], Level: fields[1], Caller: fields[2], Message: rest}, true
}

// Styles colour the parts of a log line.
type Styles struct {
	Time    lipgloss.Style
	Caller  lipgloss.Style
	Message lipgloss.Style
	Levels  map[string]lipgloss.Style
}

// DefaultStyles returns the palette used by `summit logs`.
func DefaultStyles() Styles {
	return Styles{
		Time:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Caller:  lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Message: lipgloss.NewStyle(),
		Levels: map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

// ColorizeLine renders one line with styles. Lines that do not parse are
// returned unchanged.
func ColorizeLine(line string, styles Styles) string {
	entry, ok := Parse(line)
	if !ok {
		return line
	}
	level, ok := styles.Levels[entry.Level]
	if !ok {
		level = lipgloss.NewStyle()
	}
	return strings.Join([]string{
		styles.Time.Render(entry.Time),
		level.Render(entry.Level),
		styles.Caller.Render(entry.Caller),
		styles.Message.Render(entry.Message),
	}, " ")
}

// ColorizeLines applies ColorizeLine to every line.
func ColorizeLines(lines []string, styles Styles) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line, styles)
	}
	return out
}
