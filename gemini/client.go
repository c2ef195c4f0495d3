package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/psagent"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ psagent.Provider = (*Client)(nil)

// Client implements [psagent.Provider] for the Google Gemini API.
type Client struct {
	client   *genai.Client
	model    string
	thinking bool
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is [DefaultModel].
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithThinking asks the model to include its thoughts in the response. Only
// thinking-capable models accept this.
func WithThinking(enabled bool) Option {
	return func(c *Client) { c.thinking = enabled }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is required", psagent.ErrValidation)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  DefaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the model used when a request does not name one.
func (c *Client) Model() string { return c.model }

// Stream sends a streaming request to the Gemini API and returns a
// [psagent.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req psagent.Request) (psagent.Stream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := ConvertMessages(req.Messages)
	config := buildConfig(req, c.thinking)

	logrus.WithFields(logrus.Fields{
		"model":    model,
		"messages": len(contents),
		"tools":    len(req.Tools),
	}).Debug("gemini request")

	iter := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return NewStreamFromIter(ctx, iter), nil
}

func buildConfig(req psagent.Request, thinking bool) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
	}
	if thinking {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts psagent Messages to genai Contents. Consecutive
// tool results are merged into one user turn, since Gemini expects every
// response to a batch of function calls in a single content.
func ConvertMessages(msgs []psagent.Message) []*genai.Content {
	var result []*genai.Content
	var pending *genai.Content
	flush := func() {
		if pending != nil {
			result = append(result, pending)
			pending = nil
		}
	}
	for _, msg := range msgs {
		switch m := msg.(type) {
		case psagent.UserMessage:
			flush()
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: convertParts(m.Content),
			})
		case psagent.AssistantMessage:
			flush()
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: convertParts(m.Content),
			})
		case psagent.ToolResultMessage:
			text := extractText(m.Content)
			var responseMap map[string]any
			if m.IsError {
				responseMap = map[string]any{"error": text}
			} else {
				responseMap = map[string]any{"output": text}
			}
			if pending == nil {
				pending = &genai.Content{Role: "user"}
			}
			pending.Parts = append(pending.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.ToolName,
					Response: responseMap,
				},
			})
		}
	}
	flush()
	return result
}

func convertParts(blocks []psagent.ContentBlock) []*genai.Part {
	var parts []*genai.Part
	for _, b := range blocks {
		switch bl := b.(type) {
		case psagent.TextBlock:
			parts = append(parts, &genai.Part{Text: bl.Text})
		case psagent.ThinkingBlock:
			p := &genai.Part{Text: bl.Thinking, Thought: true}
			if bl.Signature != nil {
				p.ThoughtSignature = bl.Signature
			}
			parts = append(parts, p)
		case psagent.ToolCallBlock:
			// Arguments is json.RawMessage, always valid JSON from domain types.
			var args map[string]any
			_ = json.Unmarshal(bl.Arguments, &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   bl.ID,
					Name: bl.Name,
					Args: args,
				},
			})
		}
	}
	return parts
}

// extractText returns the text of the first TextBlock, or empty string if none.
func extractText(blocks []psagent.ContentBlock) string {
	for _, b := range blocks {
		if tb, ok := b.(psagent.TextBlock); ok {
			return tb.Text
		}
	}
	return ""
}

// ConvertTools converts psagent Tools to genai Tools.
// Exported for testing.
func ConvertTools(tools []psagent.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
