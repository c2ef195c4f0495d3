package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ThinkingBlock)(nil)

// ThinkingBlock renders model thoughts, present only when thinking is
// enabled. It starts collapsed.
type ThinkingBlock struct {
	content   strings.Builder
	collapsed bool
	styles    Styles
}

// NewThinkingBlock creates a collapsed ThinkingBlock.
func NewThinkingBlock(styles Styles) *ThinkingBlock {
	return &ThinkingBlock{collapsed: true, styles: styles}
}

// Append adds a thinking text delta.
func (b *ThinkingBlock) Append(text string) {
	b.content.WriteString(text)
}

func (b *ThinkingBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	switch msg := msg.(type) {
	case ToggleMsg:
		b.collapsed = !b.collapsed
	case SetCollapsedMsg:
		b.collapsed = msg.Collapsed
	}
	return b, nil
}

func (b *ThinkingBlock) View(width int) string {
	header := b.styles.Thinking.Render(indicator(b.collapsed) + " Thinking")
	if b.collapsed {
		return header
	}
	body := trimWrap(lipgloss.NewStyle().Width(width).Render(b.content.String()))
	return header + "\n" + b.styles.Thinking.Render(body)
}

func indicator(collapsed bool) string {
	if collapsed {
		return "▶"
	}
	return "▼"
}

// trimWrap drops the padding lipgloss adds when wrapping to a fixed width.
func trimWrap(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
