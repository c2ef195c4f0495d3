package powershell

import (
	"encoding/json"

	"github.com/fwojciec/psagent"
)

// Tool names as the model sees them.
const (
	ExecuteToolName = "execute_powershell_command"
	SearchToolName  = "search_powershell_command"
)

// ExecuteTool returns the tool definition backed by Executor.Run.
func ExecuteTool() psagent.Tool {
	return psagent.Tool{
		Name:        ExecuteToolName,
		Description: "Execute a PowerShell command and return its output. Use this to inspect or change the user's system.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"command": {
					"type": "string",
					"description": "The PowerShell command to execute"
				}
			},
			"required": ["command"]
		}`),
	}
}

// SearchTool returns the tool definition backed by HelpResolver.Lookup.
func SearchTool() psagent.Tool {
	return psagent.Tool{
		Name:        SearchToolName,
		Description: "Search PowerShell help for a command or topic. Use this when unsure which cmdlet to use or how to call it.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "The command name or keyword to look up"
				}
			},
			"required": ["query"]
		}`),
	}
}
