package gemini_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/gemini"
	"github.com/fwojciec/psagent/powershell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	_, err := gemini.New(context.Background(), "")
	assert.ErrorIs(t, err, psagent.ErrValidation)
}

func TestNew_Model(t *testing.T) {
	t.Parallel()
	c, err := gemini.New(context.Background(), "test-key")
	require.NoError(t, err)
	assert.Equal(t, gemini.DefaultModel, c.Model())

	c, err = gemini.New(context.Background(), "test-key", gemini.WithModel("gemini-2.5-flash"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", c.Model())
}

func TestConvertMessages(t *testing.T) {
	t.Parallel()

	t.Run("user and assistant text", func(t *testing.T) {
		t.Parallel()
		got := gemini.ConvertMessages([]psagent.Message{
			psagent.UserMessage{Content: []psagent.ContentBlock{psagent.TextBlock{Text: "list services"}}},
			psagent.AssistantMessage{Content: []psagent.ContentBlock{psagent.TextBlock{Text: "Sure."}}},
		})
		require.Len(t, got, 2)
		assert.Equal(t, "user", got[0].Role)
		assert.Equal(t, "list services", got[0].Parts[0].Text)
		assert.Equal(t, "model", got[1].Role)
		assert.Equal(t, "Sure.", got[1].Parts[0].Text)
	})

	t.Run("thinking keeps its signature", func(t *testing.T) {
		t.Parallel()
		got := gemini.ConvertMessages([]psagent.Message{
			psagent.AssistantMessage{Content: []psagent.ContentBlock{
				psagent.ThinkingBlock{Thinking: "plan", Signature: []byte("sig")},
				psagent.ThinkingBlock{Thinking: "unsigned"},
			}},
		})
		require.Len(t, got[0].Parts, 2)
		assert.True(t, got[0].Parts[0].Thought)
		assert.Equal(t, []byte("sig"), got[0].Parts[0].ThoughtSignature)
		assert.Nil(t, got[0].Parts[1].ThoughtSignature)
	})

	t.Run("tool call and results", func(t *testing.T) {
		t.Parallel()
		got := gemini.ConvertMessages([]psagent.Message{
			psagent.AssistantMessage{Content: []psagent.ContentBlock{
				psagent.ToolCallBlock{ID: "c1", Name: "execute_powershell_command", Arguments: json.RawMessage(`{"command":"Get-Date"}`)},
				psagent.ToolCallBlock{ID: "c2", Name: "execute_powershell_command", Arguments: json.RawMessage(`{"command":"bad"}`)},
			}},
			psagent.ToolResultMessage{
				ToolCallID: "c1",
				ToolName:   "execute_powershell_command",
				Content:    []psagent.ContentBlock{psagent.TextBlock{Text: "Monday"}},
			},
			psagent.ToolResultMessage{
				ToolCallID: "c2",
				ToolName:   "execute_powershell_command",
				Content:    []psagent.ContentBlock{psagent.TextBlock{Text: "Error executing command: bad"}},
				IsError:    true,
			},
			psagent.UserMessage{Content: []psagent.ContentBlock{psagent.TextBlock{Text: "thanks"}}},
		})
		require.Len(t, got, 3)

		fc := got[0].Parts[0].FunctionCall
		require.NotNil(t, fc)
		assert.Equal(t, "c1", fc.ID)
		assert.Equal(t, "Get-Date", fc.Args["command"])

		// Both responses share one user turn.
		assert.Equal(t, "user", got[1].Role)
		require.Len(t, got[1].Parts, 2)
		ok := got[1].Parts[0].FunctionResponse
		assert.Equal(t, "c1", ok.ID)
		assert.Equal(t, "Monday", ok.Response["output"])
		failed := got[1].Parts[1].FunctionResponse
		assert.Equal(t, "Error executing command: bad", failed.Response["error"])
		assert.Nil(t, failed.Response["output"])

		assert.Equal(t, "thanks", got[2].Parts[0].Text)
	})
}

func TestConvertTools(t *testing.T) {
	t.Parallel()
	got := gemini.ConvertTools([]psagent.Tool{powershell.ExecuteTool(), powershell.SearchTool()})
	require.Len(t, got, 1)
	decls := got[0].FunctionDeclarations
	require.Len(t, decls, 2)
	assert.Equal(t, "execute_powershell_command", decls[0].Name)
	assert.Equal(t, "search_powershell_command", decls[1].Name)
	schema, ok := decls[0].ParametersJsonSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"command"}, schema["required"])

	assert.Nil(t, gemini.ConvertTools(nil))
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg := gemini.BuildConfig(psagent.Request{}, false)
		assert.Equal(t, int32(500), cfg.MaxOutputTokens)
		assert.Nil(t, cfg.Temperature)
		assert.Nil(t, cfg.SystemInstruction)
		assert.Nil(t, cfg.ThinkingConfig)
	})

	t.Run("request parameters", func(t *testing.T) {
		t.Parallel()
		temp := 0.7
		cfg := gemini.BuildConfig(psagent.Request{
			SystemPrompt: "You are a PowerShell assistant.",
			MaxTokens:    1000,
			Temperature:  &temp,
			Tools:        []psagent.Tool{powershell.ExecuteTool()},
		}, true)
		assert.Equal(t, int32(1000), cfg.MaxOutputTokens)
		require.NotNil(t, cfg.Temperature)
		assert.InDelta(t, 0.7, *cfg.Temperature, 1e-6)
		assert.Equal(t, "You are a PowerShell assistant.", cfg.SystemInstruction.Parts[0].Text)
		require.NotNil(t, cfg.ThinkingConfig)
		assert.True(t, cfg.ThinkingConfig.IncludeThoughts)
		assert.Len(t, cfg.Tools, 1)
	})
}
