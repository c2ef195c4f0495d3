// Command psagent is a natural-language PowerShell shell.
//
// Usage:
//
//	GEMINI_API_KEY=... psagent [flags]        interactive shell
//	psagent ask "show the top 5 processes"    one request, answer on stdout
//	psagent exec "Get-Date"                   run a command directly
//	psagent search Get-Process                look up help directly
//	psagent mcp                               serve the tools over MCP stdio
//	psagent config                            print the resolved settings
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		var fe *failedError
		if !errors.As(err, &fe) {
			fmt.Fprintf(os.Stderr, "psagent: %v\n", err)
		}
		os.Exit(1)
	}
}
