package bubbletea

import (
	"bytes"
	"encoding/json"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/powershell"
)

var _ MessageBlock = (*ToolCallBlock)(nil)

// ToolCallBlock renders a tool call. The collapsed form shows the command or
// query on the header line; the expanded form adds the raw arguments.
type ToolCallBlock struct {
	name      string
	id        string
	args      strings.Builder
	collapsed bool
	styles    Styles
}

// NewToolCallBlock creates a collapsed ToolCallBlock.
func NewToolCallBlock(name, id string, styles Styles) *ToolCallBlock {
	return &ToolCallBlock{name: name, id: id, collapsed: true, styles: styles}
}

// ID returns the tool call ID for event correlation.
func (b *ToolCallBlock) ID() string { return b.id }

// AppendArgs adds an argument delta.
func (b *ToolCallBlock) AppendArgs(text string) {
	b.args.WriteString(text)
}

// Finish applies the assembled call. Gemini emits begin and end without
// argument deltas, so the arguments usually arrive here.
func (b *ToolCallBlock) Finish(call psagent.ToolCallBlock) {
	if b.args.Len() == 0 && len(call.Arguments) > 0 {
		b.args.Write(call.Arguments)
	}
}

func (b *ToolCallBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	switch msg := msg.(type) {
	case ToggleMsg:
		b.collapsed = !b.collapsed
	case SetCollapsedMsg:
		b.collapsed = msg.Collapsed
	}
	return b, nil
}

func (b *ToolCallBlock) View(width int) string {
	header := b.styles.ToolCall.Render(indicator(b.collapsed) + " " + b.name)
	if s := b.summary(); s != "" {
		header += "  " + b.styles.Accent.Render(b.prompt()) + " " + preview(s, width-len(b.name)-8)
	}
	if b.collapsed || b.args.Len() == 0 {
		return header
	}
	var pretty bytes.Buffer
	raw := b.args.String()
	if err := json.Indent(&pretty, []byte(raw), "  ", "  "); err == nil {
		raw = pretty.String()
	}
	return header + "\n  " + b.styles.Muted.Render(raw)
}

func (b *ToolCallBlock) prompt() string {
	if b.name == powershell.SearchToolName {
		return "?"
	}
	return "PS>"
}

// summary extracts the single string argument of the call, if any.
func (b *ToolCallBlock) summary() string {
	var args map[string]any
	if err := json.Unmarshal([]byte(b.args.String()), &args); err != nil {
		return ""
	}
	for _, key := range []string{"command", "query"} {
		if s, ok := args[key].(string); ok {
			return s
		}
	}
	return ""
}
