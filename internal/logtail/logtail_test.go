package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Entry
		ok    bool
	}{
		{
			name:  "info line",
			input: "[2025-10-08 21:01:05] [INFO] [engine.go:120] submitted job abc",
			want:  Entry{Time: "2025-10-08 21:01:05", Level: "INFO", Caller: "engine.go:120", Message: "submitted job abc"},
			ok:    true,
		},
		{
			name:  "message with brackets",
			input: "[2025-10-08 21:01:05] [WARN] [scheduler.go:9] status poll for [x] failed",
			want:  Entry{Time: "2025-10-08 21:01:05", Level: "WARN", Caller: "scheduler.go:9", Message: "status poll for [x] failed"},
			ok:    true,
		},
		{name: "plain text", input: "panic: boom"},
		{name: "truncated", input: "[2025-10-08 21:01:05] [INFO"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Parse() = %#v, %v; want %#v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestColorizeLine(t *testing.T) {
	plain := Styles{
		Time:    lipgloss.NewStyle(),
		Caller:  lipgloss.NewStyle(),
		Message: lipgloss.NewStyle(),
		Levels:  map[string]lipgloss.Style{},
	}
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty line",
			input:    "",
			expected: "",
		},
		{
			name:     "unparsed line kept",
			input:    "    goroutine 1 [running]:",
			expected: "    goroutine 1 [running]:",
		},
		{
			name:     "structured line",
			input:    "[2025-10-08 21:01:05] [ERROR] [engine.go:7] fetch result for abc: boom",
			expected: "2025-10-08 21:01:05 ERROR engine.go:7 fetch result for abc: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ColorizeLine(tt.input, plain)
			if result != tt.expected {
				t.Errorf("ColorizeLine() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestColorizeLines(t *testing.T) {
	input := []string{
		"[2025-10-08 21:01:05] [INFO] [engine.go:1] starting",
		"not structured",
	}
	result := ColorizeLines(input, DefaultStyles())
	if len(result) != len(input) {
		t.Fatalf("ColorizeLines() returned %d lines, want %d", len(result), len(input))
	}
	if !strings.Contains(result[0], "starting") || !strings.Contains(result[0], "INFO") {
		t.Errorf("ColorizeLines()[0] = %q lost content", result[0])
	}
	if result[1] != "not structured" {
		t.Errorf("ColorizeLines()[1] = %q, want unchanged", result[1])
	}
}
