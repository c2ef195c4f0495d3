package bubbletea

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/psagent"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the psagent shell.
type Model struct {
	// Input is the prompt line. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model
	// Spinner is shown in the status line while a request is processed.
	Spinner spinner.Model

	run     AgentFunc
	session *psagent.Session
	theme   psagent.Theme
	styles  Styles
	info    Info

	blocks      []MessageBlock
	blockFocus  int // index of the focused collapsible block, -1 for none
	allExpanded bool

	// Blocks of the current request, for event correlation. Text and
	// thinking indexes restart at 0 on every assistant message; tool call
	// IDs are unique.
	activeText     map[int]*AssistantTextBlock
	activeThinking map[int]*ThinkingBlock
	activeToolCall map[string]*ToolCallBlock

	// hadToolCalls marks that the current assistant message ended in tool
	// calls, so the next text or thinking delta belongs to a new message.
	hadToolCalls bool

	// turnStart is len(session.Messages) before the current request. A
	// failed request is rolled back to it so the next one starts clean.
	turnStart int

	running  bool
	canceled bool
	quitting bool
	cancel   context.CancelFunc
	eventCh  chan psagent.Event
	doneCh   chan error
	err      error
	ready    bool
}

// New creates the shell model. The intro screen is rendered from info.
func New(run AgentFunc, session *psagent.Session, theme psagent.Theme, info Info) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter your command..."
	ti.Prompt = "PS Agent> "
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	ti.PromptStyle = styles.Accent

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent))

	return Model{
		Input:   ti,
		Spinner: sp,
		run:     run,
		session: session,
		theme:   theme,
		styles:  styles,
		info:    info,
		blocks: []MessageBlock{NewNoticeBlock(func(width int) string {
			return renderIntro(info, styles, width)
		})},
		blockFocus:     -1,
		activeText:     make(map[int]*AssistantTextBlock),
		activeThinking: make(map[int]*ThinkingBlock),
		activeToolCall: make(map[string]*ToolCallBlock),
	}
}

// Running reports whether a request is being processed.
func (m Model) Running() bool { return m.running }

// Quitting reports whether the user asked to leave the shell.
func (m Model) Quitting() bool { return m.quitting }

// Err returns the error of the last failed request, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m = m.refresh()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case AgentDoneMsg:
		return m.finish(msg.Err)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return m.styles.Success.Render(GoodbyeMessage) + "\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const inputHeight, statusHeight, gaps = 1, 1, 2
	vpHeight := max(msg.Height-inputHeight-statusHeight-gaps, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = max(msg.Width-len(m.Input.Prompt)-1, 1)
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			m.canceled = true
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
		}
		return m, nil

	case tea.KeyCtrlO:
		if !m.running {
			m = m.toggleAll()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// Character keys go only to the input so that letters like j and k do
	// not scroll the viewport while typing.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

// submit handles a line of input: one of the shell commands, or a request
// for the agent.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")

	switch strings.ToLower(text) {
	case "exit", "quit", "q":
		m.quitting = true
		return m, tea.Quit
	case "help":
		styles := m.styles
		m.blocks = append(m.blocks, NewNoticeBlock(func(int) string { return renderHelp(styles) }))
		return m.refresh(), nil
	case "config":
		styles, info := m.styles, m.info
		m.blocks = append(m.blocks, NewNoticeBlock(func(int) string { return renderConfig(info, styles) }))
		return m.refresh(), nil
	}

	m.err = nil
	m.canceled = false
	m.turnStart = len(m.session.Messages)
	m.session.Messages = append(m.session.Messages, psagent.UserMessage{
		Content:   []psagent.ContentBlock{psagent.TextBlock{Text: text}},
		Timestamp: time.Now(),
	})
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))

	m.activeText = make(map[int]*AssistantTextBlock)
	m.activeThinking = make(map[int]*ThinkingBlock)
	m.activeToolCall = make(map[string]*ToolCallBlock)
	m.hadToolCalls = false

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan psagent.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true
	m.Input.Blur()

	return m.refresh(), tea.Batch(
		startAgent(ctx, m.run, m.session, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
		m.Spinner.Tick,
	)
}

func (m Model) finish(err error) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.eventCh = nil
	m.doneCh = nil

	switch {
	case err == nil:
	case m.canceled || errors.Is(err, context.Canceled):
		m.session.Messages = m.session.Messages[:m.turnStart]
		styles := m.styles
		m.blocks = append(m.blocks, NewNoticeBlock(func(int) string { return styles.Muted.Render(CanceledMessage) }))
	default:
		m.session.Messages = m.session.Messages[:m.turnStart]
		m.err = err
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
	}

	m = m.updateBlockFocus()
	return m.refresh(), m.Input.Focus()
}

// refresh re-renders the conversation and scrolls to the end.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

// renderSession creates blocks for messages already in the session.
func (m Model) renderSession() Model {
	for _, msg := range m.session.Messages {
		switch msg := msg.(type) {
		case psagent.UserMessage:
			for _, b := range msg.Content {
				if tb, ok := b.(psagent.TextBlock); ok {
					m.blocks = append(m.blocks, NewUserMessageBlock(tb.Text, m.styles))
				}
			}
		case psagent.AssistantMessage:
			for _, b := range msg.Content {
				switch cb := b.(type) {
				case psagent.TextBlock:
					block := NewAssistantTextBlock(m.theme, m.styles)
					block.Append(cb.Text)
					m.blocks = append(m.blocks, block)
				case psagent.ThinkingBlock:
					block := NewThinkingBlock(m.styles)
					block.Append(cb.Thinking)
					m.blocks = append(m.blocks, block)
				case psagent.ToolCallBlock:
					block := NewToolCallBlock(cb.Name, cb.ID, m.styles)
					block.Finish(cb)
					m.blocks = append(m.blocks, block)
				}
			}
		case psagent.ToolResultMessage:
			m.blocks = append(m.blocks, NewToolResultBlock(msg.ToolName, (&psagent.ToolResult{Content: msg.Content}).Text(), msg.IsError, m.styles))
		}
	}
	return m.updateBlockFocus()
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString(blockSeparator(m.blocks[i-1], block))
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// processEvent routes a streaming event to its block.
func (m Model) processEvent(evt psagent.Event) Model {
	switch e := evt.(type) {
	case psagent.EventTextDelta:
		m = m.nextMessage()
		if b, ok := m.activeText[e.Index]; ok {
			b.Append(e.Delta)
			break
		}
		b := NewAssistantTextBlock(m.theme, m.styles)
		b.Append(e.Delta)
		m.blocks = append(m.blocks, b)
		m.activeText[e.Index] = b
	case psagent.EventThinkingDelta:
		m = m.nextMessage()
		if b, ok := m.activeThinking[e.Index]; ok {
			b.Append(e.Delta)
			break
		}
		b := NewThinkingBlock(m.styles)
		b.Append(e.Delta)
		m.blocks = append(m.blocks, b)
		m.activeThinking[e.Index] = b
		m = m.updateBlockFocus()
	case psagent.EventToolCallBegin:
		m.hadToolCalls = true
		b := NewToolCallBlock(e.Name, e.ID, m.styles)
		m.blocks = append(m.blocks, b)
		m.activeToolCall[e.ID] = b
		m = m.updateBlockFocus()
	case psagent.EventToolCallDelta:
		if b, ok := m.activeToolCall[e.ID]; ok {
			b.AppendArgs(e.Delta)
		}
	case psagent.EventToolCallEnd:
		if b, ok := m.activeToolCall[e.Call.ID]; ok {
			b.Finish(e.Call)
		}
	case psagent.EventToolResult:
		m.blocks = append(m.blocks, NewToolResultBlock(e.ToolName, e.Content, e.IsError, m.styles))
		m = m.updateBlockFocus()
	}
	return m
}

// nextMessage starts fresh text and thinking maps once the previous
// assistant message has ended in tool calls.
func (m Model) nextMessage() Model {
	if m.hadToolCalls {
		m.activeText = make(map[int]*AssistantTextBlock)
		m.activeThinking = make(map[int]*ThinkingBlock)
		m.hadToolCalls = false
	}
	return m
}

// updateBlockFocus focuses the last collapsible block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if collapsible(m.blocks[i]) {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves focus to the previous collapsible block, wrapping.
func (m Model) cycleFocusPrev() Model {
	n := len(m.blocks)
	start := m.blockFocus - 1
	if start < 0 {
		start = n - 1
	}
	for i := range n {
		idx := (start - i + n) % n
		if collapsible(m.blocks[idx]) {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

// toggleAll expands every collapsible block, or collapses them all again.
func (m Model) toggleAll() Model {
	m.allExpanded = !m.allExpanded
	for i, b := range m.blocks {
		if collapsible(b) {
			m.blocks[i], _ = b.Update(SetCollapsedMsg{Collapsed: !m.allExpanded})
		}
	}
	return m
}

func (m Model) statusLine() string {
	if m.running {
		return m.Spinner.View() + " " + m.styles.Muted.Render(ProcessingMessage+" (Ctrl+C to cancel)")
	}
	if m.err != nil {
		return m.styles.Error.Render("Last request failed. Enter to send, Ctrl+C to quit")
	}
	return m.styles.Muted.Render("Enter to send, Tab to expand, Ctrl+O to expand all, Ctrl+C to quit")
}

// startAgent runs the agent in a goroutine and signals completion.
func startAgent(ctx context.Context, run AgentFunc, session *psagent.Session, eventCh chan<- psagent.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := run(ctx, session, func(e psagent.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForEvent waits for the next event. Once the channel is closed it
// reads the result from doneCh.
func listenForEvent(ch <-chan psagent.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return AgentDoneMsg{Err: <-doneCh}
		}
		return StreamEventMsg{Event: evt}
	}
}
