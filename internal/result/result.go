// Package result projects a finished job's payload into a render-ready view.
package result

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/job"
	"github.com/five82/summit/internal/source"
)

// NoData replaces a TL;DR or transcript the server did not produce.
const NoData = "No data"

// minDetectRunes is the shortest transcript worth running language detection on.
const minDetectRunes = 40

// Section is one outline block.
type Section struct {
	Title  string
	Points []string
}

// Moment is a timestamp entry. Seconds is -1 and Link empty when the time
// label could not be parsed or the source has no video to link into.
type Moment struct {
	Time    string
	Label   string
	Seconds int
	Link    string
}

// View is the projection of a result payload. Each Has flag is true only
// when the matching payload field is non-empty.
type View struct {
	Source job.Source

	TLDR    string
	HasTLDR bool

	KeyPoints    []string
	HasKeyPoints bool

	Outline    []Section
	HasOutline bool

	ActionItems    []string
	HasActionItems bool

	Timestamps    []Moment
	HasTimestamps bool

	Transcript    string
	HasTranscript bool
	Language      string
}

// Project converts payload into a View. src is the tracked job's source and
// supplies the kind; metadata in the payload fills any gaps. Project never
// fails on missing sections.
func Project(payload api.ResultPayload, src job.Source) View {
	v := View{Source: mergeMeta(src, payload.Source)}

	var sum api.Summary
	if payload.Summary != nil {
		sum = *payload.Summary
	}

	v.TLDR = strings.TrimSpace(sum.TLDR)
	v.HasTLDR = v.TLDR != ""
	if !v.HasTLDR {
		v.TLDR = NoData
	}

	v.KeyPoints = cloneStrings(sum.KeyPoints)
	v.HasKeyPoints = len(v.KeyPoints) > 0

	for _, sec := range sum.Outline {
		v.Outline = append(v.Outline, Section{Title: sec.Title, Points: cloneStrings(sec.Points)})
	}
	v.HasOutline = len(v.Outline) > 0

	v.ActionItems = cloneStrings(sum.ActionItems)
	v.HasActionItems = len(v.ActionItems) > 0

	for _, ts := range sum.Timestamps {
		m := Moment{Time: ts.T, Label: ts.Label, Seconds: -1}
		if secs, err := HMSToSeconds(ts.T); err == nil {
			m.Seconds = secs
			m.Link, _ = DeepLink(v.Source, secs)
		}
		v.Timestamps = append(v.Timestamps, m)
	}
	v.HasTimestamps = len(v.Timestamps) > 0

	if payload.Transcript != nil {
		v.Transcript = strings.TrimSpace(payload.Transcript.Text)
		v.Language = strings.TrimSpace(payload.Transcript.Language)
	}
	v.HasTranscript = v.Transcript != ""
	if !v.HasTranscript {
		v.Transcript = NoData
	} else if v.Language == "" {
		v.Language = DetectLanguage(v.Transcript)
	}
	return v
}

// HMSToSeconds converts "H:MM:SS", "M:SS" or a bare seconds count into
// seconds. Parts are read right to left: seconds, minutes, hours.
func HMSToSeconds(ts string) (int, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	parts := strings.Split(ts, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse timestamp %q: too many parts", ts)
	}
	total := 0
	unit := 1
	for i := len(parts) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("parse timestamp %q: invalid part %q", ts, parts[i])
		}
		total += n * unit
		unit *= 60
	}
	return total, nil
}

// DeepLink returns a link that opens the source video at seconds. It is only
// available for external videos with a known or derivable video id.
func DeepLink(src job.Source, seconds int) (string, bool) {
	if src.Kind != job.KindExternalVideo {
		return "", false
	}
	id := src.VideoID
	if id == "" {
		id, _ = source.VideoID(src.URL)
	}
	if id == "" {
		return "", false
	}
	return source.WatchURL(id, seconds), true
}

// DetectLanguage guesses the ISO 639-1 code of text. It returns "" when the
// text is too short or the language is unknown.
func DetectLanguage(text string) string {
	if len([]rune(text)) < minDetectRunes {
		return ""
	}
	return whatlanggo.DetectLang(text).Iso6391()
}

func mergeMeta(src job.Source, meta api.SourceMeta) job.Source {
	if src.Title == "" {
		src.Title = strings.TrimSpace(meta.Title)
	}
	if src.Filename == "" {
		src.Filename = strings.TrimSpace(meta.Filename)
	}
	if src.URL == "" {
		src.URL = strings.TrimSpace(meta.URL)
	}
	if src.VideoID == "" {
		src.VideoID = strings.TrimSpace(meta.VideoID)
	}
	if src.Kind == "" {
		src.Kind = job.KindExternalVideo
		if src.URL == "" && src.Filename != "" {
			src.Kind = job.KindUpload
		}
	}
	return src
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
