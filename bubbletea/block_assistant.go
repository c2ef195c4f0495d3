package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/markdown"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders the agent's streamed answer as markdown inside
// the response panel. Text up to the last paragraph break outside a code
// fence is rendered once per width and cached; only the tail is re-rendered
// on each delta.
type AssistantTextBlock struct {
	content strings.Builder
	theme   psagent.Theme
	styles  Styles

	stable        string
	stableByWidth map[int]string
}

// NewAssistantTextBlock creates a block for streaming assistant text.
func NewAssistantTextBlock(theme psagent.Theme, styles Styles) *AssistantTextBlock {
	return &AssistantTextBlock{
		theme:         theme,
		styles:        styles,
		stableByWidth: make(map[int]string),
	}
}

// Append adds a text delta from the stream.
func (b *AssistantTextBlock) Append(text string) {
	b.content.WriteString(text)
	b.advance()
}

// Text returns the raw markdown received so far.
func (b *AssistantTextBlock) Text() string { return b.content.String() }

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	return panel("Agent Response", b.styles.Agent, b.styles.AgentBar, b.body(panelWidth(width)))
}

func (b *AssistantTextBlock) body(width int) string {
	head := b.renderStable(width)
	rest := b.pending()
	if openFence(rest) {
		rest += "\n```"
	}
	if strings.TrimSpace(rest) == "" {
		return head
	}
	restRendered := markdown.Render(rest, width, b.theme)
	if strings.TrimSpace(restRendered) == "" {
		return head
	}
	if head == "" {
		return strings.Trim(restRendered, "\n")
	}
	return strings.TrimRight(head, "\n") + "\n\n" + strings.Trim(restRendered, "\n")
}

// advance moves the stable prefix to the last "\n\n" that is not inside an
// open code fence.
func (b *AssistantTextBlock) advance() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !openFence(candidate) {
			if candidate != b.stable {
				b.stable = candidate
				clear(b.stableByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderStable(width int) string {
	if width <= 0 || b.stable == "" {
		return ""
	}
	if cached, ok := b.stableByWidth[width]; ok {
		return cached
	}
	rendered := strings.Trim(markdown.Render(b.stable, width, b.theme), "\n")
	b.stableByWidth[width] = rendered
	return rendered
}

func (b *AssistantTextBlock) pending() string {
	raw := b.content.String()
	if b.stable == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.stable+"\n\n")
}

// openFence reports an odd number of ``` markers. Triple backticks inside
// inline code spans are miscounted.
func openFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
