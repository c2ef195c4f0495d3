package bubbletea

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ToolResultBlock)(nil)

// ToolResultBlock renders command output. Successful results start
// collapsed to a one-line preview; errors are always expanded.
type ToolResultBlock struct {
	toolName  string
	content   string
	isError   bool
	collapsed bool
	styles    Styles
}

// NewToolResultBlock creates a ToolResultBlock. The content is sanitized for
// display.
func NewToolResultBlock(toolName, content string, isError bool, styles Styles) *ToolResultBlock {
	return &ToolResultBlock{
		toolName:  toolName,
		content:   sanitize(content),
		isError:   isError,
		collapsed: !isError,
		styles:    styles,
	}
}

// ToolName returns the tool that produced the result.
func (b *ToolResultBlock) ToolName() string { return b.toolName }

// IsError reports whether the result is an error.
func (b *ToolResultBlock) IsError() bool { return b.isError }

func (b *ToolResultBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	switch msg := msg.(type) {
	case ToggleMsg:
		b.collapsed = !b.collapsed
	case SetCollapsedMsg:
		b.collapsed = msg.Collapsed
	}
	if b.isError {
		b.collapsed = false
	}
	return b, nil
}

func (b *ToolResultBlock) View(width int) string {
	icon := b.styles.Success.Render("✓")
	if b.isError {
		icon = b.styles.Error.Render("✗")
	}
	header := b.styles.ToolCall.Render(indicator(b.collapsed)+" output") + " " + icon
	if b.collapsed {
		if p := preview(b.content, width-lipgloss.Width(header)-2); p != "" {
			header += "  " + b.styles.Muted.Render(p)
		}
		return header
	}
	if b.content == "" {
		return header
	}
	body, hidden := tail(b.content, maxResultLines)
	body = trimWrap(lipgloss.NewStyle().Width(width).Render(body))
	if b.isError {
		body = b.styles.Error.Render(body)
	}
	if hidden > 0 {
		header += "\n" + b.styles.Muted.Render(fmt.Sprintf("… %d earlier lines hidden", hidden))
	}
	return header + "\n" + body
}
