// Package mock provides test doubles for psagent interfaces using function fields.
package mock

import (
	"context"
	"encoding/json"
	"io"

	"github.com/fwojciec/psagent"
)

var (
	_ psagent.Provider     = (*Provider)(nil)
	_ psagent.Stream       = (*Stream)(nil)
	_ psagent.ToolExecutor = (*ToolExecutor)(nil)
)

// Provider is a test double for psagent.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req psagent.Request) (psagent.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req psagent.Request) (psagent.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Stream is a test double for psagent.Stream.
// NextFn and MessageFn panic when nil to catch missing setup. CloseFn and
// StateFn are nil-safe because callers routinely defer Close.
type Stream struct {
	NextFn    func() (psagent.Event, error)
	StateFn   func() psagent.StreamState
	MessageFn func() (psagent.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (psagent.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() psagent.StreamState {
	if s.StateFn == nil {
		return psagent.StreamStateNew
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (psagent.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ScriptedStream returns a Stream that yields events in order, then io.EOF,
// and finally reports msg as the assembled message.
func ScriptedStream(msg psagent.AssistantMessage, events ...psagent.Event) *Stream {
	i := 0
	state := psagent.StreamStateNew
	return &Stream{
		NextFn: func() (psagent.Event, error) {
			if i >= len(events) {
				state = psagent.StreamStateComplete
				return nil, io.EOF
			}
			state = psagent.StreamStateStreaming
			evt := events[i]
			i++
			return evt, nil
		},
		StateFn: func() psagent.StreamState { return state },
		MessageFn: func() (psagent.AssistantMessage, error) {
			return msg, nil
		},
	}
}

// ToolExecutor is a test double for psagent.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, name string, args json.RawMessage) (*psagent.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (*psagent.ToolResult, error) {
	return e.ExecuteFn(ctx, name, args)
}
