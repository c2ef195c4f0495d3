package psagent

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxTurns bounds how many provider round trips a single Run may make.
const DefaultMaxTurns = 25

// Loop orchestrates the conversation between a Provider and a ToolExecutor.
type Loop struct {
	provider Provider
	executor ToolExecutor
}

// NewLoop creates a new Loop with the given provider and tool executor.
func NewLoop(provider Provider, executor ToolExecutor) *Loop {
	return &Loop{provider: provider, executor: executor}
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onEvent     func(Event)
	model       string
	maxTokens   int
	temperature *float64
	maxTurns    int
}

// WithEventHandler sets a callback that receives each streaming event during
// the run. If nil or not set, events are silently discarded.
func WithEventHandler(h func(Event)) RunOption {
	return func(c *runConfig) {
		c.onEvent = h
	}
}

// WithModel sets the model ID for provider requests during this run.
// Empty string means the provider uses its default model.
func WithModel(model string) RunOption {
	return func(c *runConfig) {
		c.model = model
	}
}

// WithMaxTokens caps output tokens per provider request. Zero means the
// provider default.
func WithMaxTokens(n int) RunOption {
	return func(c *runConfig) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature for provider requests.
func WithTemperature(t float64) RunOption {
	return func(c *runConfig) {
		c.temperature = &t
	}
}

// WithMaxTurns overrides DefaultMaxTurns. Values below 1 are ignored.
func WithMaxTurns(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// Run executes the agent loop. It sends the session's messages to the provider,
// streams the response, executes any tool calls, and repeats until the assistant
// stops requesting tools. It appends all messages to session.Messages.
func (l *Loop) Run(ctx context.Context, session *Session, tools []Tool, opts ...RunOption) error {
	cfg := runConfig{maxTurns: DefaultMaxTurns}
	for _, opt := range opts {
		opt(&cfg)
	}
	for i := 0; i < cfg.maxTurns; i++ {
		cont, err := l.turn(ctx, session, tools, &cfg)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return fmt.Errorf("agent requested tools %d times in a row: %w", cfg.maxTurns, ErrMaxTurns)
}

// turn executes a single turn of the conversation loop. It returns true if the
// loop should continue (tool calls were made), false if it should stop.
func (l *Loop) turn(ctx context.Context, session *Session, tools []Tool, cfg *runConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	req := Request{
		Model:        cfg.model,
		SystemPrompt: session.SystemPrompt,
		Messages:     session.Messages,
		Tools:        tools,
		MaxTokens:    cfg.maxTokens,
		Temperature:  cfg.temperature,
	}
	if err := req.Validate(); err != nil {
		return false, err
	}

	stream, err := l.provider.Stream(ctx, req)
	if err != nil {
		return false, err
	}
	defer stream.Close()

	// Drain the stream, forwarding events to handler if set.
	var streamErr error
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		if cfg.onEvent != nil {
			cfg.onEvent(evt)
		}
	}

	// Get the assembled message (partial or complete).
	msg, msgErr := stream.Message()
	if msgErr != nil {
		if streamErr != nil {
			return false, streamErr
		}
		return false, msgErr
	}

	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = time.Now()

	if streamErr != nil {
		return false, streamErr
	}

	var toolCalls []ToolCallBlock
	for _, block := range msg.Content {
		if tc, ok := block.(ToolCallBlock); ok {
			toolCalls = append(toolCalls, tc)
		}
	}

	if len(toolCalls) == 0 {
		return false, nil
	}

	// Tool calls run one at a time, in the order the model issued them.
	for _, tc := range toolCalls {
		result, execErr := l.executor.Execute(ctx, tc.Name, tc.Arguments)
		if execErr != nil {
			logrus.WithError(execErr).WithField("tool", tc.Name).Warn("tool execution failed")
			result = &ToolResult{
				Content: []ContentBlock{TextBlock{Text: execErr.Error()}},
				IsError: true,
			}
		}

		session.Messages = append(session.Messages, ToolResultMessage{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Content:    result.Content,
			IsError:    result.IsError,
			Timestamp:  time.Now(),
		})

		// Only text content is surfaced in the event. If no text blocks
		// exist, the event is skipped entirely.
		if cfg.onEvent != nil {
			if text := result.Text(); text != "" {
				cfg.onEvent(EventToolResult{
					ID:       tc.ID,
					ToolName: tc.Name,
					Content:  text,
					IsError:  result.IsError,
				})
			}
		}
	}
	session.UpdatedAt = time.Now()

	return true, nil
}
