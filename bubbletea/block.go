package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MessageBlock is a renderable element in the conversation.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg tells a collapsible block to toggle its collapsed state.
// Sent by the root model when the user presses Tab on a focused block.
type ToggleMsg struct{}

// SetCollapsedMsg forces a collapsible block into the given state.
type SetCollapsedMsg struct {
	Collapsed bool
}

func collapsible(b MessageBlock) bool {
	switch b.(type) {
	case *ThinkingBlock, *ToolCallBlock, *ToolResultBlock:
		return true
	}
	return false
}

// blockSeparator keeps a tool call and its result visually grouped and puts
// a blank line between everything else.
func blockSeparator(prev, curr MessageBlock) string {
	if isTool(prev) && isTool(curr) {
		return "\n"
	}
	return "\n\n"
}

func isTool(b MessageBlock) bool {
	switch b.(type) {
	case *ToolCallBlock, *ToolResultBlock:
		return true
	}
	return false
}

// panel renders body under a titled header with a colored left bar.
func panel(title string, titleStyle, barStyle lipgloss.Style, body string) string {
	bar := barStyle.Render("│") + " "
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = bar + l
	}
	return titleStyle.Render("◆ "+title) + "\n" + strings.Join(lines, "\n")
}

// panelWidth is the body width available inside a panel.
func panelWidth(width int) int {
	if width <= 3 {
		return 1
	}
	return width - 2
}

// NoticeBlock renders static shell output such as the intro screen, the
// help text or the config panel.
type NoticeBlock struct {
	render func(width int) string
}

var _ MessageBlock = (*NoticeBlock)(nil)

// NewNoticeBlock creates a NoticeBlock from a width-aware render function.
func NewNoticeBlock(render func(width int) string) *NoticeBlock {
	return &NoticeBlock{render: render}
}

func (b *NoticeBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *NoticeBlock) View(width int) string {
	return b.render(width)
}
