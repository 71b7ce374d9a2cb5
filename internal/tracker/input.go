package tracker

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/five82/summit/internal/source"
)

// Summary styles accepted by the server.
const (
	StyleShort    = "short"
	StyleMedium   = "medium"
	StyleDetailed = "detailed"
)

// LanguageAuto lets the server detect the spoken language.
const LanguageAuto = "auto"

// InputError is a submission problem caught before any network call.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request describes one submission. Exactly one of URL and FilePath is set.
type Request struct {
	URL      string
	FilePath string
	Style    string
	Language string
}

// ValidStyle reports whether style is a known summary style.
func ValidStyle(style string) bool {
	switch style {
	case StyleShort, StyleMedium, StyleDetailed:
		return true
	}
	return false
}

// NormalizeLanguage returns "auto" or the lower-case base language code for
// a BCP 47 tag.
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, LanguageAuto) {
		return LanguageAuto, nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", &InputError{Field: "language", Reason: fmt.Sprintf("%q is not a language code", lang)}
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", &InputError{Field: "language", Reason: fmt.Sprintf("%q is not a language code", lang)}
	}
	return base.String(), nil
}

// normalize checks r and fills defaults. maxUploadMB <= 0 skips the size
// check.
func (r Request) normalize(maxUploadMB int) (Request, error) {
	r.URL = strings.TrimSpace(r.URL)
	r.FilePath = strings.TrimSpace(r.FilePath)

	switch {
	case r.URL == "" && r.FilePath == "":
		return r, &InputError{Field: "source", Reason: "a URL or a file is required"}
	case r.URL != "" && r.FilePath != "":
		return r, &InputError{Field: "source", Reason: "give either a URL or a file, not both"}
	}

	r.Style = strings.ToLower(strings.TrimSpace(r.Style))
	if r.Style == "" {
		r.Style = StyleMedium
	}
	if !ValidStyle(r.Style) {
		return r, &InputError{Field: "summary_style", Reason: fmt.Sprintf("%q is not short, medium or detailed", r.Style)}
	}
	lang, err := NormalizeLanguage(r.Language)
	if err != nil {
		return r, err
	}
	r.Language = lang

	if r.URL != "" {
		if !source.IsVideoURL(r.URL) {
			return r, &InputError{Field: "url", Reason: "only YouTube links are supported"}
		}
		return r, nil
	}

	info, err := os.Stat(r.FilePath)
	if err != nil {
		return r, &InputError{Field: "file", Reason: err.Error()}
	}
	if info.IsDir() {
		return r, &InputError{Field: "file", Reason: r.FilePath + " is a directory"}
	}
	if err := source.CheckUpload(r.FilePath, info.Size(), maxUploadMB); err != nil {
		return r, &InputError{Field: "file", Reason: err.Error()}
	}
	return r, nil
}
