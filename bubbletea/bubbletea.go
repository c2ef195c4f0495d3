// Package bubbletea provides the interactive Bubble Tea shell for psagent.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/psagent"
)

// AgentFunc runs one agent turn against the session. The onEvent callback is
// called for each streaming event. The function blocks until the turn
// completes or the context is cancelled.
type AgentFunc func(ctx context.Context, session *psagent.Session, onEvent func(psagent.Event)) error

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits and returns the final model. The program quits when ctx is cancelled.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-done:
		}
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// StreamEventMsg wraps a streaming event for delivery to the model.
type StreamEventMsg struct {
	Event psagent.Event
}

// AgentDoneMsg signals that the agent turn has completed.
type AgentDoneMsg struct {
	Err error
}
