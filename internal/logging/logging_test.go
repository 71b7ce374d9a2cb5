package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	l.Info("hidden")
	l.Warn("poll failed: %s", "timeout")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	if !strings.HasPrefix(out, "[2025-03-04 05:06:07] [WARN] [logging_test.go:") {
		t.Fatalf("unexpected prefix: %q", out)
	}
	if !strings.HasSuffix(out, "poll failed: timeout\n") {
		t.Fatalf("unexpected message: %q", out)
	}

	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG]") {
		t.Fatalf("debug line missing after SetLevel: %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "summit.log")
	l, err := OpenFile(path, LevelInfo)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	l.Error("boom")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[ERROR]") || !strings.Contains(string(data), "boom") {
		t.Fatalf("log file = %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": LevelDebug, "": LevelInfo, "Warning": LevelWarn, "ERROR": LevelError}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("ParseLevel(loud) returned nil error")
	}
}

func TestNilAndDiscard(t *testing.T) {
	var l *Logger
	l.Info("no panic")
	Discard().Error("dropped")
}
