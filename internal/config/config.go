package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings summit reads from disk and the environment.
type Config struct {
	APIURL          string
	APIKey          string // from SUMMIT_API_KEY only; never read from the file
	DataDir         string
	HistoryCapacity int
	LogLevel        string
	Poll            Poll
}

// Poll tunes the adaptive status poller.
type Poll struct {
	Base             time.Duration
	Growth           float64
	Max              time.Duration
	FailureMax       time.Duration
	FailureThreshold int
	RequestTimeout   time.Duration
}

const (
	defaultConfigPath      = "~/.config/summit/config.toml"
	defaultDataDir         = "~/.local/share/summit"
	defaultAPIURL          = "http://127.0.0.1:8000"
	defaultHistoryCapacity = 10
	minHistoryCapacity     = 5
	maxHistoryCapacity     = 10
	defaultLogLevel        = "info"

	// Environment variables that override the file.
	EnvAPIURL  = "SUMMIT_API_URL"
	EnvAPIKey  = "SUMMIT_API_KEY"
	EnvDataDir = "SUMMIT_DATA_DIR"
)

// DefaultPoll returns the stock poll settings.
func DefaultPoll() Poll {
	return Poll{
		Base:             2 * time.Second,
		Growth:           1.5,
		Max:              15 * time.Second,
		FailureMax:       20 * time.Second,
		FailureThreshold: 3,
		RequestTimeout:   15 * time.Second,
	}
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		DataDir:         mustExpand(defaultDataDir),
		HistoryCapacity: defaultHistoryCapacity,
		LogLevel:        defaultLogLevel,
		Poll:            DefaultPoll(),
	}
}

type rawConfig struct {
	APIURL          string  `toml:"api_url"`
	DataDir         string  `toml:"data_dir"`
	HistoryCapacity int     `toml:"history_capacity"`
	LogLevel        string  `toml:"log_level"`
	Poll            rawPoll `toml:"poll"`
}

type rawPoll struct {
	BaseSeconds           float64 `toml:"base_seconds"`
	Growth                float64 `toml:"growth"`
	MaxSeconds            float64 `toml:"max_seconds"`
	FailureMaxSeconds     float64 `toml:"failure_max_seconds"`
	FailureThreshold      int     `toml:"failure_threshold"`
	RequestTimeoutSeconds float64 `toml:"request_timeout_seconds"`
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load locates and parses the summit config, falling back to defaults when
// missing, then applies SUMMIT_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnv(&cfg)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if raw.HistoryCapacity != 0 {
		cfg.HistoryCapacity = clampCapacity(raw.HistoryCapacity)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.Poll = raw.Poll.merge(cfg.Poll)

	applyEnv(&cfg)
	return cfg, nil
}

func (r rawPoll) merge(p Poll) Poll {
	if r.BaseSeconds > 0 {
		p.Base = seconds(r.BaseSeconds)
	}
	if r.Growth >= 1 {
		p.Growth = r.Growth
	}
	if r.MaxSeconds > 0 {
		p.Max = seconds(r.MaxSeconds)
	}
	if r.FailureMaxSeconds > 0 {
		p.FailureMax = seconds(r.FailureMaxSeconds)
	}
	if r.FailureThreshold > 0 {
		p.FailureThreshold = r.FailureThreshold
	}
	if r.RequestTimeoutSeconds > 0 {
		p.RequestTimeout = seconds(r.RequestTimeoutSeconds)
	}
	if p.Max < p.Base {
		p.Max = p.Base
	}
	if p.FailureMax < p.Max {
		p.FailureMax = p.Max
	}
	return p
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.DataDir = mustExpand(v)
	}
}

// StorePath returns the sqlite key-value store location.
func (c Config) StorePath() string {
	return filepath.Join(c.dataDir(), "summit.db")
}

// LogPath returns the client log file location.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "summit.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func clampCapacity(n int) int {
	switch {
	case n <= 0:
		return defaultHistoryCapacity
	case n < minHistoryCapacity:
		return minHistoryCapacity
	case n > maxHistoryCapacity:
		return maxHistoryCapacity
	default:
		return n
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
