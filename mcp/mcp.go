// Package mcp serves the psagent shell tools over the Model Context Protocol,
// so an external agent can run PowerShell commands and help lookups through
// the same registry the built-in agent uses.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/powershell"
)

// Instructions is sent to clients on initialization.
const Instructions = `This server runs PowerShell commands on the host without confirmation.
Use search_powershell_command to look up a cmdlet before calling execute_powershell_command when unsure.
Commands are killed after a fixed timeout; interactive commands will hang until then.`

// Caller dispatches a tool by name with its single string argument.
// registry.Registry implements it.
type Caller interface {
	Call(ctx context.Context, name, arg string) (psagent.CommandResult, error)
}

// ExecuteParams are the arguments of execute_powershell_command.
type ExecuteParams struct {
	Command string `json:"command" jsonschema:"The PowerShell command to execute."`
}

// SearchParams are the arguments of search_powershell_command.
type SearchParams struct {
	Query string `json:"query" jsonschema:"The command name or keyword to look up."`
}

// Server exposes a Caller as MCP tools.
type Server struct {
	caller Caller
	server *sdk.Server
}

// NewServer registers both shell tools on a new MCP server.
func NewServer(caller Caller, version string) *Server {
	s := &Server{
		caller: caller,
		server: sdk.NewServer(&sdk.Implementation{
			Name:    "psagent",
			Title:   "PowerShell commands and help lookups",
			Version: version,
		}, &sdk.ServerOptions{Instructions: Instructions}),
	}
	exec := powershell.ExecuteTool()
	search := powershell.SearchTool()
	sdk.AddTool(s.server, &sdk.Tool{Name: exec.Name, Description: exec.Description}, s.Execute)
	sdk.AddTool(s.server, &sdk.Tool{Name: search.Name, Description: search.Description}, s.Search)
	return s
}

// Run serves over t until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, t sdk.Transport) error {
	logrus.Info("mcp: serving")
	return s.server.Run(ctx, t)
}

// Connect starts a session over t without blocking. Used with in-memory
// transports.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// ServeStdio serves over stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &sdk.StdioTransport{})
}

// Execute handles execute_powershell_command.
func (s *Server) Execute(ctx context.Context, _ *sdk.CallToolRequest, p ExecuteParams) (*sdk.CallToolResult, any, error) {
	return s.call(ctx, powershell.ExecuteToolName, p.Command)
}

// Search handles search_powershell_command.
func (s *Server) Search(ctx context.Context, _ *sdk.CallToolRequest, p SearchParams) (*sdk.CallToolResult, any, error) {
	return s.call(ctx, powershell.SearchToolName, p.Query)
}

// call converts a CommandResult into a tool result. Command failures are
// reported with IsError so the client sees the text; only dispatch errors
// fail the request.
func (s *Server) call(ctx context.Context, name, arg string) (*sdk.CallToolResult, any, error) {
	res, err := s.caller.Call(ctx, name, arg)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{"tool": name, "kind": res.ErrorKind}).Debug("mcp: tool call")
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: res.Output}},
		IsError: !res.Succeeded,
	}, nil, nil
}
