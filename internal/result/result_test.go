package result

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/summit/internal/api"
	"github.com/five82/summit/internal/job"
)

func fullPayload() api.ResultPayload {
	return api.ResultPayload{
		Source: api.SourceMeta{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Title: "Weekly sync"},
		Summary: &api.Summary{
			TLDR:        "Short summary",
			KeyPoints:   []string{"Point 1", "Point 2"},
			Outline:     []api.OutlineSection{{Title: "Intro", Points: []string{"A", "B"}}},
			ActionItems: []string{"Do X"},
			Timestamps:  []api.Timestamp{{T: "00:00:05", Label: "Start"}, {T: "1:02:03", Label: "Wrap"}},
		},
		Transcript: &api.Transcript{Text: "Hello world"},
	}
}

func TestHMSToSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1:02:03", 3723},
		{"02:03", 123},
		{"45", 45},
		{"00:00:05", 5},
		{" 0:59 ", 59},
	}
	for _, tt := range tests {
		got, err := HMSToSeconds(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "a:b", "1:2:3:4", "-5", "1::2"} {
		_, err := HMSToSeconds(bad)
		assert.Error(t, err, bad)
	}
}

func TestProject_FullPayload(t *testing.T) {
	src := job.Source{Kind: job.KindExternalVideo}
	v := Project(fullPayload(), src)

	assert.True(t, v.HasTLDR)
	assert.Equal(t, "Short summary", v.TLDR)
	assert.True(t, v.HasKeyPoints)
	assert.True(t, v.HasOutline)
	assert.True(t, v.HasActionItems)
	assert.True(t, v.HasTimestamps)
	assert.True(t, v.HasTranscript)
	assert.Equal(t, "Weekly sync", v.Source.Label())

	require.Len(t, v.Timestamps, 2)
	assert.Equal(t, 5, v.Timestamps[0].Seconds)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=5s", v.Timestamps[0].Link)
	assert.Equal(t, 3723, v.Timestamps[1].Seconds)
}

func TestProject_EmptyPayloadFallsBack(t *testing.T) {
	v := Project(api.ResultPayload{}, job.Source{Kind: job.KindUpload, Filename: "call.mp3"})

	assert.False(t, v.HasTLDR)
	assert.Equal(t, NoData, v.TLDR)
	assert.False(t, v.HasTranscript)
	assert.Equal(t, NoData, v.Transcript)
	assert.False(t, v.HasKeyPoints)
	assert.False(t, v.HasOutline)
	assert.False(t, v.HasActionItems)
	assert.False(t, v.HasTimestamps)
	assert.Nil(t, v.KeyPoints)
}

func TestProject_EmptySectionsFlaggedAbsent(t *testing.T) {
	payload := api.ResultPayload{
		Summary:    &api.Summary{TLDR: "   ", KeyPoints: []string{}, Outline: nil},
		Transcript: &api.Transcript{Text: ""},
	}
	v := Project(payload, job.Source{})
	assert.False(t, v.HasTLDR)
	assert.False(t, v.HasKeyPoints)
	assert.False(t, v.HasTranscript)
}

func TestProject_UploadTimestampsHaveNoLink(t *testing.T) {
	payload := api.ResultPayload{
		Source:  api.SourceMeta{Filename: "call.mp3"},
		Summary: &api.Summary{Timestamps: []api.Timestamp{{T: "0:10", Label: "Intro"}, {T: "soon", Label: "Bad"}}},
	}
	v := Project(payload, job.Source{Kind: job.KindUpload})

	require.Len(t, v.Timestamps, 2)
	assert.Equal(t, 10, v.Timestamps[0].Seconds)
	assert.Empty(t, v.Timestamps[0].Link)
	assert.Equal(t, -1, v.Timestamps[1].Seconds)
	assert.Empty(t, v.Timestamps[1].Link)
}

func TestDeepLink(t *testing.T) {
	link, ok := DeepLink(job.Source{Kind: job.KindExternalVideo, VideoID: "abcdefghijk"}, 42)
	assert.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk&t=42s", link)

	link, ok = DeepLink(job.Source{Kind: job.KindExternalVideo, URL: "https://youtu.be/dQw4w9WgXcQ"}, 7)
	assert.True(t, ok)
	assert.Contains(t, link, "v=dQw4w9WgXcQ")

	_, ok = DeepLink(job.Source{Kind: job.KindExternalVideo, URL: "https://example.com/video"}, 7)
	assert.False(t, ok)

	_, ok = DeepLink(job.Source{Kind: job.KindUpload, VideoID: "abcdefghijk"}, 7)
	assert.False(t, ok)
}

func TestDetectLanguage(t *testing.T) {
	assert.Empty(t, DetectLanguage("Hi"))
	text := "This is a fairly long English transcript about the quarterly planning meeting and the roadmap for the next release."
	assert.Equal(t, "en", DetectLanguage(text))

	v := Project(api.ResultPayload{Transcript: &api.Transcript{Text: text, Language: "ru"}}, job.Source{})
	assert.Equal(t, "ru", v.Language, "reported language wins over detection")
}

func TestPlainText_Order(t *testing.T) {
	out := PlainText(Project(fullPayload(), job.Source{Kind: job.KindExternalVideo}))

	tldr := strings.Index(out, "TL;DR: Short summary")
	points := strings.Index(out, "- Point 1")
	outline := strings.Index(out, "Intro\n  - A")
	actions := strings.Index(out, "[ ] Do X")
	require.True(t, tldr >= 0 && points >= 0 && outline >= 0 && actions >= 0, out)
	assert.True(t, tldr < points && points < outline && outline < actions, out)
}

func TestPlainText_OmitsAbsentSections(t *testing.T) {
	out := PlainText(Project(api.ResultPayload{Summary: &api.Summary{TLDR: "x"}}, job.Source{}))
	assert.Equal(t, "TL;DR: x\n", out)
}

func TestMarkdown_ContainsSections(t *testing.T) {
	payload := fullPayload()
	payload.Source = api.SourceMeta{Filename: "call.mp3"}
	md := Markdown(Project(payload, job.Source{Kind: job.KindUpload}))

	assert.True(t, strings.HasPrefix(md, "# AI Summary Result"))
	assert.Contains(t, md, "**Source:** call.mp3")
	assert.Contains(t, md, "## Timestamps")
	assert.Contains(t, md, "**00:00:05** Start")
	assert.Contains(t, md, "- [ ] Do X")
	assert.Contains(t, md, "### Intro")
	assert.Contains(t, md, "## Transcript\n\nHello world")
}

func TestMarkdown_LinksTimestampsForVideos(t *testing.T) {
	md := Markdown(Project(fullPayload(), job.Source{Kind: job.KindExternalVideo}))
	assert.Contains(t, md, "[**00:00:05**](https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=5s) Start")
}
