// Package markdown renders agent answers as ANSI-styled terminal text. It
// parses GitHub-flavoured markdown with goldmark, since model output about
// shell commands is full of fenced PowerShell, tables and inline code, and
// styles it with lipgloss.
package markdown

import "github.com/fwojciec/psagent"

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered without reflow.
func Render(source string, width int, theme psagent.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return newRenderer(theme, width).render([]byte(source))
}
