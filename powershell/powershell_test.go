package powershell_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/powershell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutMessage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Error: Command execution timed out (30 seconds limit).", powershell.TimeoutMessage(powershell.DefaultTimeout))
	assert.Equal(t, "Error: Command execution timed out (1.5s limit).", powershell.TimeoutMessage(1500*time.Millisecond))
}

func TestDefaultInterpreter(t *testing.T) {
	t.Parallel()
	in := powershell.DefaultInterpreter()
	assert.Contains(t, []string{"pwsh", "powershell"}, in.Path)
	assert.Equal(t, []string{"-NoProfile", "-NonInteractive", "-Command"}, in.Args)
}

func TestParseInterpreter(t *testing.T) {
	t.Parallel()

	t.Run("splits a command line", func(t *testing.T) {
		t.Parallel()
		in, err := powershell.ParseInterpreter(`"/opt/power shell/pwsh" -NoProfile -Command`)
		require.NoError(t, err)
		assert.Equal(t, "/opt/power shell/pwsh", in.Path)
		assert.Equal(t, []string{"-NoProfile", "-Command"}, in.Args)
	})

	t.Run("rejects an empty command line", func(t *testing.T) {
		t.Parallel()
		_, err := powershell.ParseInterpreter("   ")
		assert.Error(t, err)
	})

	t.Run("rejects an unterminated quote", func(t *testing.T) {
		t.Parallel()
		_, err := powershell.ParseInterpreter(`pwsh "-Command`)
		assert.Error(t, err)
	})
}

func TestInterpreter_String(t *testing.T) {
	t.Parallel()
	in := powershell.Interpreter{Path: "pwsh", Args: []string{"-NoProfile", "-Command"}}
	assert.Equal(t, "pwsh -NoProfile -Command", in.String())
}

func TestTools(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tool  func() psagent.Tool
		param string
	}{
		{"execute", powershell.ExecuteTool, "command"},
		{"search", powershell.SearchTool, "query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tool := tt.tool()
			assert.NotEmpty(t, tool.Description)
			var schema struct {
				Type       string                    `json:"type"`
				Properties map[string]map[string]any `json:"properties"`
				Required   []string                  `json:"required"`
			}
			require.NoError(t, json.Unmarshal(tool.Parameters, &schema))
			assert.Equal(t, "object", schema.Type)
			require.Contains(t, schema.Properties, tt.param)
			assert.Equal(t, "string", schema.Properties[tt.param]["type"])
			assert.Equal(t, []string{tt.param}, schema.Required)
		})
	}
	assert.Equal(t, "execute_powershell_command", powershell.ExecuteTool().Name)
	assert.Equal(t, "search_powershell_command", powershell.SearchTool().Name)
}
