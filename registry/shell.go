package registry

import (
	"context"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/powershell"
)

// CommandRunner runs one command line. Implemented by powershell.Executor.
type CommandRunner interface {
	Run(ctx context.Context, command string) psagent.CommandResult
}

// HelpLookup resolves help for a query. Implemented by
// powershell.HelpResolver.
type HelpLookup interface {
	Lookup(ctx context.Context, query string) psagent.CommandResult
}

// NewShell returns a Registry holding execute_powershell_command and
// search_powershell_command, in that order.
func NewShell(runner CommandRunner, help HelpLookup) (*Registry, error) {
	r := New()
	if err := r.Register(powershell.ExecuteTool(), "command", runner.Run); err != nil {
		return nil, err
	}
	if err := r.Register(powershell.SearchTool(), "query", help.Lookup); err != nil {
		return nil, err
	}
	return r, nil
}
