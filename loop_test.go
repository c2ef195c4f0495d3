package psagent_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedStream returns a mock stream that immediately signals completion
// and returns the given AssistantMessage.
func completedStream(msg psagent.AssistantMessage) *mock.Stream {
	return mock.ScriptedStream(msg)
}

func toolCallMessage(calls ...psagent.ToolCallBlock) psagent.AssistantMessage {
	content := make([]psagent.ContentBlock, len(calls))
	for i, c := range calls {
		content[i] = c
	}
	return psagent.AssistantMessage{Content: content, StopReason: psagent.StopToolUse}
}

func textMessage(text string) psagent.AssistantMessage {
	return psagent.AssistantMessage{
		Content:    []psagent.ContentBlock{psagent.TextBlock{Text: text}},
		StopReason: psagent.StopEndTurn,
	}
}

func noTools(t *testing.T) *mock.ToolExecutor {
	return &mock.ToolExecutor{
		ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*psagent.ToolResult, error) {
			t.Error("executor should not be called")
			return nil, nil
		},
	}
}

func TestLoop_Run(t *testing.T) {
	t.Parallel()

	t.Run("text response ends turn", func(t *testing.T) {
		t.Parallel()
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				return completedStream(textMessage("hello")), nil
			},
		}

		session := &psagent.Session{SystemPrompt: "you are helpful"}
		err := psagent.NewLoop(provider, noTools(t)).Run(context.Background(), session, nil)
		require.NoError(t, err)

		require.Len(t, session.Messages, 1)
		am, ok := session.Messages[0].(psagent.AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, psagent.StopEndTurn, am.StopReason)
		assert.Equal(t, "hello", am.Text())
	})

	t.Run("single tool call", func(t *testing.T) {
		t.Parallel()
		call := psagent.ToolCallBlock{
			ID:        "tc_1",
			Name:      "execute_powershell_command",
			Arguments: json.RawMessage(`{"command":"Get-Date"}`),
		}
		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMessage(call)), nil
				}
				return completedStream(textMessage("done")), nil
			},
		}

		var executedName string
		var executedArgs json.RawMessage
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, name string, args json.RawMessage) (*psagent.ToolResult, error) {
				executedName = name
				executedArgs = args
				return psagent.CommandResult{Succeeded: true, Output: "Monday"}.ToolResult(), nil
			},
		}

		session := &psagent.Session{}
		err := psagent.NewLoop(provider, executor).Run(context.Background(), session, nil)
		require.NoError(t, err)

		require.Len(t, session.Messages, 3)
		trm, ok := session.Messages[1].(psagent.ToolResultMessage)
		require.True(t, ok)
		assert.Equal(t, "tc_1", trm.ToolCallID)
		assert.Equal(t, "execute_powershell_command", trm.ToolName)
		assert.False(t, trm.IsError)
		assert.Equal(t, []psagent.ContentBlock{psagent.TextBlock{Text: "Monday"}}, trm.Content)

		assert.Equal(t, "execute_powershell_command", executedName)
		assert.JSONEq(t, `{"command":"Get-Date"}`, string(executedArgs))
	})

	t.Run("multiple tool calls run in order", func(t *testing.T) {
		t.Parallel()
		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMessage(
						psagent.ToolCallBlock{ID: "a", Name: "search_powershell_command", Arguments: json.RawMessage(`{"query":"process"}`)},
						psagent.ToolCallBlock{ID: "b", Name: "execute_powershell_command", Arguments: json.RawMessage(`{"command":"Get-Process"}`)},
					)), nil
				}
				return completedStream(textMessage("ok")), nil
			},
		}
		var order []string
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, name string, _ json.RawMessage) (*psagent.ToolResult, error) {
				order = append(order, name)
				return psagent.CommandResult{Succeeded: true, Output: name}.ToolResult(), nil
			},
		}

		session := &psagent.Session{}
		require.NoError(t, psagent.NewLoop(provider, executor).Run(context.Background(), session, nil))
		assert.Equal(t, []string{"search_powershell_command", "execute_powershell_command"}, order)
		require.Len(t, session.Messages, 4)
	})

	t.Run("tool infrastructure error becomes error result", func(t *testing.T) {
		t.Parallel()
		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMessage(psagent.ToolCallBlock{ID: "x", Name: "broken"})), nil
				}
				return completedStream(textMessage("recovered")), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*psagent.ToolResult, error) {
				return nil, errors.New("disk on fire")
			},
		}

		session := &psagent.Session{}
		require.NoError(t, psagent.NewLoop(provider, executor).Run(context.Background(), session, nil))
		trm, ok := session.Messages[1].(psagent.ToolResultMessage)
		require.True(t, ok)
		assert.True(t, trm.IsError)
		assert.Equal(t, []psagent.ContentBlock{psagent.TextBlock{Text: "disk on fire"}}, trm.Content)
	})

	t.Run("failed command is fed back to the model", func(t *testing.T) {
		t.Parallel()
		var second psagent.Request
		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, req psagent.Request) (psagent.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMessage(psagent.ToolCallBlock{
						ID: "t", Name: "execute_powershell_command", Arguments: json.RawMessage(`{"command":"bogus"}`),
					})), nil
				}
				second = req
				return completedStream(textMessage("that failed")), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*psagent.ToolResult, error) {
				return psagent.CommandResult{
					Output:    "Error executing command: bogus not recognized",
					ErrorKind: psagent.ErrorKindNonZeroExit,
				}.ToolResult(), nil
			},
		}

		session := &psagent.Session{}
		require.NoError(t, psagent.NewLoop(provider, executor).Run(context.Background(), session, nil))
		require.Len(t, second.Messages, 2)
		trm, ok := second.Messages[1].(psagent.ToolResultMessage)
		require.True(t, ok)
		assert.True(t, trm.IsError)
	})

	t.Run("stream error preserves partial message", func(t *testing.T) {
		t.Parallel()
		streamErr := errors.New("connection reset")
		partial := psagent.AssistantMessage{
			Content:    []psagent.ContentBlock{psagent.TextBlock{Text: "partial"}},
			StopReason: psagent.StopError,
		}
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				return &mock.Stream{
					NextFn:    func() (psagent.Event, error) { return nil, streamErr },
					MessageFn: func() (psagent.AssistantMessage, error) { return partial, nil },
				}, nil
			},
		}

		session := &psagent.Session{}
		err := psagent.NewLoop(provider, noTools(t)).Run(context.Background(), session, nil)
		require.ErrorIs(t, err, streamErr)
		require.Len(t, session.Messages, 1)
		assert.Equal(t, partial, session.Messages[0])
	})

	t.Run("provider stream error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("quota exceeded")
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				return nil, wantErr
			},
		}
		session := &psagent.Session{}
		err := psagent.NewLoop(provider, noTools(t)).Run(context.Background(), session, nil)
		assert.ErrorIs(t, err, wantErr)
		assert.Empty(t, session.Messages)
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				t.Error("provider should not be called")
				return nil, nil
			},
		}
		err := psagent.NewLoop(provider, noTools(t)).Run(ctx, &psagent.Session{}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("request carries prompt tools and generation params", func(t *testing.T) {
		t.Parallel()
		var got psagent.Request
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, req psagent.Request) (psagent.Stream, error) {
				got = req
				return completedStream(textMessage("ok")), nil
			},
		}
		tools := []psagent.Tool{{Name: "execute_powershell_command", Description: "run"}}
		session := &psagent.Session{SystemPrompt: "be careful"}

		err := psagent.NewLoop(provider, noTools(t)).Run(context.Background(), session, tools,
			psagent.WithModel("gemini-2.0-flash"),
			psagent.WithMaxTokens(500),
			psagent.WithTemperature(0.7),
		)
		require.NoError(t, err)
		assert.Equal(t, "be careful", got.SystemPrompt)
		assert.Equal(t, tools, got.Tools)
		assert.Equal(t, "gemini-2.0-flash", got.Model)
		assert.Equal(t, 500, got.MaxTokens)
		require.NotNil(t, got.Temperature)
		assert.InDelta(t, 0.7, *got.Temperature, 1e-9)
	})

	t.Run("invalid generation params are rejected before streaming", func(t *testing.T) {
		t.Parallel()
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				t.Error("provider should not be called")
				return nil, nil
			},
		}
		err := psagent.NewLoop(provider, noTools(t)).Run(context.Background(), &psagent.Session{}, nil,
			psagent.WithTemperature(3))
		assert.ErrorIs(t, err, psagent.ErrValidation)
	})

	t.Run("event handler receives stream and tool result events", func(t *testing.T) {
		t.Parallel()
		call := psagent.ToolCallBlock{ID: "tc", Name: "execute_powershell_command", Arguments: json.RawMessage(`{"command":"hostname"}`)}
		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				turn++
				if turn == 1 {
					return mock.ScriptedStream(toolCallMessage(call),
						psagent.EventToolCallBegin{ID: "tc", Name: call.Name},
						psagent.EventToolCallEnd{Call: call},
					), nil
				}
				return mock.ScriptedStream(textMessage("box01"), psagent.EventTextDelta{Delta: "box01"}), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*psagent.ToolResult, error) {
				return psagent.CommandResult{Succeeded: true, Output: "box01"}.ToolResult(), nil
			},
		}

		var events []psagent.Event
		err := psagent.NewLoop(provider, executor).Run(context.Background(), &psagent.Session{}, nil,
			psagent.WithEventHandler(func(e psagent.Event) { events = append(events, e) }))
		require.NoError(t, err)
		assert.Equal(t, []psagent.Event{
			psagent.EventToolCallBegin{ID: "tc", Name: call.Name},
			psagent.EventToolCallEnd{Call: call},
			psagent.EventToolResult{ID: "tc", ToolName: call.Name, Content: "box01"},
			psagent.EventTextDelta{Delta: "box01"},
		}, events)
	})

	t.Run("stops after max turns", func(t *testing.T) {
		t.Parallel()
		calls := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				calls++
				return completedStream(toolCallMessage(psagent.ToolCallBlock{
					ID: "loop", Name: "execute_powershell_command", Arguments: json.RawMessage(`{"command":"Get-Date"}`),
				})), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*psagent.ToolResult, error) {
				return psagent.CommandResult{Succeeded: true, Output: "again"}.ToolResult(), nil
			},
		}
		err := psagent.NewLoop(provider, executor).Run(context.Background(), &psagent.Session{}, nil,
			psagent.WithMaxTurns(3))
		assert.ErrorIs(t, err, psagent.ErrMaxTurns)
		assert.Equal(t, 3, calls)
	})

	t.Run("message error without stream error is returned", func(t *testing.T) {
		t.Parallel()
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ psagent.Request) (psagent.Stream, error) {
				return &mock.Stream{
					NextFn:    func() (psagent.Event, error) { return nil, io.EOF },
					MessageFn: func() (psagent.AssistantMessage, error) { return psagent.AssistantMessage{}, psagent.ErrStreamNotReady },
				}, nil
			},
		}
		err := psagent.NewLoop(provider, noTools(t)).Run(context.Background(), &psagent.Session{}, nil)
		assert.ErrorIs(t, err, psagent.ErrStreamNotReady)
	})
}
