package result

import "strings"

// PlainText renders the summary for the clipboard: TL;DR, key points, then
// outline and action items when present.
func PlainText(v View) string {
	var b strings.Builder
	b.WriteString("TL;DR: ")
	b.WriteString(v.TLDR)
	b.WriteString("\n")

	if v.HasKeyPoints {
		b.WriteString("\nKey points:\n")
		for _, p := range v.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	if v.HasOutline {
		b.WriteString("\nOutline:\n")
		for _, sec := range v.Outline {
			b.WriteString(sec.Title + "\n")
			for _, p := range sec.Points {
				b.WriteString("  - " + p + "\n")
			}
		}
	}
	if v.HasActionItems {
		b.WriteString("\nAction items:\n")
		for _, item := range v.ActionItems {
			b.WriteString("[ ] " + item + "\n")
		}
	}
	return b.String()
}

// Markdown renders the whole view as a markdown document.
func Markdown(v View) string {
	var b strings.Builder
	b.WriteString("# AI Summary Result\n\n")
	b.WriteString("**Source:** " + v.Source.Label() + "\n")
	if v.Source.URL != "" && v.Source.URL != v.Source.Label() {
		b.WriteString("**URL:** " + v.Source.URL + "\n")
	}

	b.WriteString("\n## TL;DR\n\n" + v.TLDR + "\n")
	if v.HasKeyPoints {
		b.WriteString("\n## Key Points\n\n")
		for _, p := range v.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	if v.HasOutline {
		b.WriteString("\n## Outline\n")
		for _, sec := range v.Outline {
			b.WriteString("\n### " + sec.Title + "\n\n")
			for _, p := range sec.Points {
				b.WriteString("- " + p + "\n")
			}
		}
	}
	if v.HasActionItems {
		b.WriteString("\n## Action Items\n\n")
		for _, item := range v.ActionItems {
			b.WriteString("- [ ] " + item + "\n")
		}
	}
	if v.HasTimestamps {
		b.WriteString("\n## Timestamps\n\n")
		for _, m := range v.Timestamps {
			stamp := "**" + m.Time + "**"
			if m.Link != "" {
				stamp = "[" + stamp + "](" + m.Link + ")"
			}
			b.WriteString("- " + stamp + " " + m.Label + "\n")
		}
	}
	b.WriteString("\n## Transcript\n\n" + v.Transcript + "\n")
	return b.String()
}
