package bubbletea

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// maxResultLines bounds the expanded view of a tool result. The model still
// receives the full output; only the display is cut.
const maxResultLines = 200

// sanitize makes command output safe to draw inside the viewport. It strips
// ANSI sequences and control characters except tab and newline, normalizes
// CRLF and resolves lone carriage returns the way a terminal would.
func sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' || r > 0x1F {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		if strings.ContainsRune(line, '\r') {
			lines[i] = overwrite(line)
		}
	}
	return strings.Join(lines, "\n")
}

// overwrite applies carriage returns within one line: each \r moves the
// write position back to column zero.
func overwrite(line string) string {
	segments := strings.Split(line, "\r")
	buf := []rune(segments[0])
	for _, seg := range segments[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}

// tail keeps the last n lines of s and reports how many were dropped.
func tail(s string, n int) (string, int) {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) <= n {
		return s, 0
	}
	return strings.Join(lines[len(lines)-n:], "\n"), len(lines) - n
}

// preview returns the first non-blank line of s cut to width display cells.
func preview(s string, width int) string {
	line := ""
	for l := range strings.SplitSeq(s, "\n") {
		if strings.TrimSpace(l) != "" {
			line = strings.TrimSpace(l)
			break
		}
	}
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(line, width, "…")
}
