package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvAPIKey, EnvDataDir} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}

	wantDataDir, err := expandPath(defaultDataDir)
	if err != nil {
		t.Fatalf("expandPath(defaultDataDir) returned error: %v", err)
	}
	if cfg.DataDir != wantDataDir {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, wantDataDir)
	}
	if cfg.StorePath() != filepath.Join(wantDataDir, "summit.db") {
		t.Fatalf("StorePath = %q", cfg.StorePath())
	}
	if cfg.HistoryCapacity != 10 {
		t.Fatalf("HistoryCapacity = %d, want 10", cfg.HistoryCapacity)
	}
	if cfg.Poll != DefaultPoll() {
		t.Fatalf("Poll = %+v, want defaults", cfg.Poll)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://summary.example.com  "
data_dir = "  ~/.summit  "
history_capacity = 7
log_level = "DEBUG"

[poll]
base_seconds = 1
growth = 2.0
max_seconds = 8
failure_max_seconds = 12
failure_threshold = 5
request_timeout_seconds = 30
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://summary.example.com" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.DataDir != filepath.Join(home, ".summit") {
		t.Fatalf("DataDir = %q, want it under HOME %q", cfg.DataDir, home)
	}
	if cfg.LogPath() != filepath.Join(home, ".summit", "summit.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath())
	}
	if cfg.HistoryCapacity != 7 || cfg.LogLevel != "debug" {
		t.Fatalf("HistoryCapacity = %d LogLevel = %q", cfg.HistoryCapacity, cfg.LogLevel)
	}
	want := Poll{
		Base:             time.Second,
		Growth:           2,
		Max:              8 * time.Second,
		FailureMax:       12 * time.Second,
		FailureThreshold: 5,
		RequestTimeout:   30 * time.Second,
	}
	if cfg.Poll != want {
		t.Fatalf("Poll = %+v, want %+v", cfg.Poll, want)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "   "
data_dir = ""

[poll]
growth = 0.5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	wantDataDir, err := expandPath(defaultDataDir)
	if err != nil {
		t.Fatalf("expandPath(defaultDataDir) returned error: %v", err)
	}
	if cfg.DataDir != wantDataDir {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, wantDataDir)
	}
	if cfg.Poll.Growth != 1.5 {
		t.Fatalf("Growth = %v, want default 1.5", cfg.Poll.Growth)
	}
}

func TestLoad_ClampsHistoryCapacityAndPollCaps(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
history_capacity = 50

[poll]
base_seconds = 30
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HistoryCapacity != 10 {
		t.Fatalf("HistoryCapacity = %d, want 10", cfg.HistoryCapacity)
	}
	if cfg.Poll.Max != 30*time.Second || cfg.Poll.FailureMax != 30*time.Second {
		t.Fatalf("caps not raised to base: %+v", cfg.Poll)
	}
	if clampCapacity(2) != 5 {
		t.Fatalf("clampCapacity(2) = %d, want 5", clampCapacity(2))
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "http://env:9000")
	t.Setenv(EnvAPIKey, " env-key ")
	t.Setenv(EnvDataDir, "~/envdata")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://file:8000"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://env:9000" || cfg.APIKey != "env-key" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(home, "envdata") {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFile(missing) = %v, want nil", err)
	}

	t.Setenv(EnvAPIURL, "")
	os.Unsetenv(EnvAPIURL)
	t.Setenv(EnvDataDir, "already-set")
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SUMMIT_API_URL=http://dotenv:1\nSUMMIT_DATA_DIR=/ignored\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv(EnvAPIURL); got != "http://dotenv:1" {
		t.Fatalf("%s = %q", EnvAPIURL, got)
	}
	if got := os.Getenv(EnvDataDir); got != "already-set" {
		t.Fatalf("existing env overridden: %q", got)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenDataDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/summit.log")) {
		t.Fatalf("LogPath = %q, want it to end with /summit.log", got)
	}
}
