package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/fwojciec/psagent"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

type blockKind int

const (
	blockNone blockKind = iota
	blockText
	blockThinking
	blockToolCall
)

// stream implements [psagent.Stream] by wrapping the genai SDK's streaming
// iterator. One chunk may carry several parts, so events are queued and
// handed out one per Next call.
type stream struct {
	ctx   context.Context
	pull  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	state psagent.StreamState
	msg   psagent.AssistantMessage
	err   error

	queue        []psagent.Event
	last         blockKind
	finish       genai.FinishReason
	hasToolCalls bool
}

// Interface compliance check.
var _ psagent.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator. Client.Stream uses it
// with the SDK iterator; tests use it with canned chunks.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) psagent.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: psagent.StreamStateNew,
	}
}

func (s *stream) Next() (psagent.Event, error) {
	switch s.state {
	case psagent.StreamStateComplete:
		return nil, io.EOF
	case psagent.StreamStateError:
		return nil, s.err
	case psagent.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", ErrStreamClosed)
	}
	for {
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue = s.queue[1:]
			s.state = psagent.StreamStateStreaming
			return evt, nil
		}
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(psagent.StopAborted, "aborted", fmt.Errorf("gemini: %w", err))
		}
		resp, err, ok := s.pull()
		if !ok {
			s.finalize()
			s.state = psagent.StreamStateComplete
			return nil, io.EOF
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return nil, s.fail(psagent.StopAborted, "aborted", fmt.Errorf("gemini: %w", err))
			}
			return nil, s.fail(psagent.StopError, "error", fmt.Errorf("gemini: %w", err))
		}
		if err := s.process(resp); err != nil {
			return nil, s.fail(psagent.StopError, "", err)
		}
	}
}

// fail moves the stream to the error state. An empty raw keeps whatever raw
// stop reason processing already recorded.
func (s *stream) fail(reason psagent.StopReason, raw string, err error) error {
	s.state = psagent.StreamStateError
	s.err = err
	s.msg.StopReason = reason
	if raw != "" || s.msg.RawStopReason == "" {
		s.msg.RawStopReason = raw
	}
	if s.msg.RawStopReason == "" {
		s.msg.RawStopReason = string(reason)
	}
	s.msg.Timestamp = time.Now()
	return err
}

func (s *stream) process(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if resp.UsageMetadata != nil {
		s.setUsage(resp.UsageMetadata)
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			s.msg.RawStopReason = string(fb.BlockReason)
			if fb.BlockReasonMessage != "" {
				return fmt.Errorf("gemini: prompt blocked: %s: %s", fb.BlockReason, fb.BlockReasonMessage)
			}
			return fmt.Errorf("gemini: prompt blocked: %s", fb.BlockReason)
		}
		return nil
	}
	cand := resp.Candidates[0]
	if cand == nil {
		return nil
	}
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if err := s.processPart(p); err != nil {
				return err
			}
		}
	}
	if cand.FinishReason != "" {
		s.finish = cand.FinishReason
	}
	return nil
}

func (s *stream) processPart(p *genai.Part) error {
	if p == nil {
		return nil
	}
	switch {
	case p.FunctionCall != nil:
		return s.addToolCall(p)
	case p.Thought:
		if s.last != blockThinking {
			s.msg.Content = append(s.msg.Content, psagent.ThinkingBlock{})
			s.last = blockThinking
		}
		idx := len(s.msg.Content) - 1
		tb := s.msg.Content[idx].(psagent.ThinkingBlock)
		tb.Thinking += p.Text
		if len(p.ThoughtSignature) > 0 {
			tb.Signature = p.ThoughtSignature
		}
		s.msg.Content[idx] = tb
		if p.Text != "" {
			s.queue = append(s.queue, psagent.EventThinkingDelta{Index: idx, Delta: p.Text})
		}
	case p.Text != "":
		if s.last != blockText {
			s.msg.Content = append(s.msg.Content, psagent.TextBlock{})
			s.last = blockText
		}
		idx := len(s.msg.Content) - 1
		tb := s.msg.Content[idx].(psagent.TextBlock)
		tb.Text += p.Text
		s.msg.Content[idx] = tb
		s.queue = append(s.queue, psagent.EventTextDelta{Index: idx, Delta: p.Text})
	}
	return nil
}

func (s *stream) addToolCall(p *genai.Part) error {
	fc := p.FunctionCall
	args := json.RawMessage("{}")
	if fc.Args != nil {
		b, err := json.Marshal(fc.Args)
		if err != nil {
			return fmt.Errorf("gemini: invalid tool call arguments for %s: %w", fc.Name, err)
		}
		args = b
	}
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	if len(p.ThoughtSignature) > 0 {
		s.backfillSignature(p.ThoughtSignature)
	}

	call := psagent.ToolCallBlock{ID: id, Name: fc.Name, Arguments: args}
	s.msg.Content = append(s.msg.Content, call)
	s.last = blockToolCall
	s.hasToolCalls = true
	s.queue = append(s.queue,
		psagent.EventToolCallBegin{ID: id, Name: fc.Name},
		psagent.EventToolCallEnd{Call: call},
	)
	return nil
}

// backfillSignature attaches sig to the nearest preceding thinking block
// that has none. Gemini may deliver the signature on the function call
// part instead of the thought itself.
func (s *stream) backfillSignature(sig []byte) {
	for i := len(s.msg.Content) - 1; i >= 0; i-- {
		tb, ok := s.msg.Content[i].(psagent.ThinkingBlock)
		if !ok {
			continue
		}
		if tb.Signature == nil {
			tb.Signature = sig
			s.msg.Content[i] = tb
		}
		return
	}
}

func (s *stream) setUsage(u *genai.GenerateContentResponseUsageMetadata) {
	cached := int(u.CachedContentTokenCount)
	input := int(u.PromptTokenCount) - cached
	if input < 0 {
		input = 0
	}
	s.msg.Usage = psagent.Usage{
		InputTokens:     input,
		OutputTokens:    int(u.CandidatesTokenCount) + int(u.ThoughtsTokenCount),
		CacheReadTokens: cached,
	}
}

func (s *stream) finalize() {
	switch s.finish {
	case "", genai.FinishReasonStop, genai.FinishReasonUnspecified:
		s.msg.StopReason = psagent.StopEndTurn
		s.msg.RawStopReason = string(psagent.StopEndTurn)
	case genai.FinishReasonMaxTokens:
		s.msg.StopReason = psagent.StopLength
		s.msg.RawStopReason = string(s.finish)
	default:
		s.msg.StopReason = psagent.StopError
		s.msg.RawStopReason = string(s.finish)
	}
	if s.msg.StopReason == psagent.StopEndTurn && s.hasToolCalls {
		s.msg.StopReason = psagent.StopToolUse
		s.msg.RawStopReason = string(psagent.StopToolUse)
	}
	s.msg.Timestamp = time.Now()
}

func (s *stream) State() psagent.StreamState {
	return s.state
}

func (s *stream) Message() (psagent.AssistantMessage, error) {
	if s.state == psagent.StreamStateNew {
		return psagent.AssistantMessage{}, fmt.Errorf("gemini: %w", psagent.ErrStreamNotReady)
	}
	return s.msg, nil
}

func (s *stream) Close() error {
	if s.state != psagent.StreamStateComplete && s.state != psagent.StreamStateError {
		s.state = psagent.StreamStateClosed
		s.msg.StopReason = psagent.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	s.stop()
	return nil
}
