// Package prefs handles summit user preferences persistence.
// Preferences are stored in ~/.config/summit/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Prefs holds the defaults applied to new submissions and the UI theme.
type Prefs struct {
	SummaryStyle string `toml:"summary_style"`
	Language     string `toml:"language"`
	Theme        string `toml:"theme"`
}

const (
	defaultPrefsPath    = "~/.config/summit/prefs.toml"
	defaultSummaryStyle = "medium"
	defaultLanguage     = "auto"
	defaultTheme        = "Dracula"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{SummaryStyle: defaultSummaryStyle, Language: defaultLanguage, Theme: defaultTheme}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Defaults(), nil // Graceful degradation
	}

	var prefs Prefs
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}
	return prefs.normalize(), nil
}

// Save writes preferences to the given path, creating directories as needed.
// Invalid values are rejected rather than silently replaced.
func Save(path string, p Prefs) error {
	if err := p.Validate(); err != nil {
		return err
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Validate reports the first invalid field. Empty fields are valid and
// mean "use the default".
func (p Prefs) Validate() error {
	switch strings.ToLower(strings.TrimSpace(p.SummaryStyle)) {
	case "", "short", "medium", "detailed":
	default:
		return fmt.Errorf("invalid summary_style %q", p.SummaryStyle)
	}
	if !validLanguage(p.Language) {
		return fmt.Errorf("invalid language %q", p.Language)
	}
	return nil
}

func (p Prefs) normalize() Prefs {
	def := Defaults()
	p.SummaryStyle = strings.ToLower(strings.TrimSpace(p.SummaryStyle))
	switch p.SummaryStyle {
	case "short", "medium", "detailed":
	default:
		p.SummaryStyle = def.SummaryStyle
	}
	p.Language = strings.TrimSpace(p.Language)
	if p.Language == "" || !validLanguage(p.Language) {
		p.Language = def.Language
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = def.Theme
	}
	return p
}

func validLanguage(lang string) bool {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, defaultLanguage) {
		return true
	}
	_, err := language.Parse(lang)
	return err == nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
