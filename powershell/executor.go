package powershell

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/psagent"
)

// Executor runs a single command line per call in a fresh interpreter
// process.
type Executor struct {
	interp  Interpreter
	timeout time.Duration
}

// NewExecutor creates an Executor with DefaultInterpreter and DefaultTimeout
// unless overridden.
func NewExecutor(opts ...Option) *Executor {
	o := newOptions(DefaultTimeout, opts)
	return &Executor{interp: o.interp, timeout: o.timeout}
}

// Timeout returns the per-command wall-clock limit.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// Interpreter returns the interpreter commands are handed to.
func (e *Executor) Interpreter() Interpreter { return e.interp }

// Execute runs command and returns the text handed back to the agent.
func (e *Executor) Execute(ctx context.Context, command string) string {
	return e.Run(ctx, command).Output
}

// Run runs command and classifies the outcome. It never returns a Go error:
// every failure is described in the result's Output.
func (e *Executor) Run(ctx context.Context, command string) psagent.CommandResult {
	out := e.interp.run(ctx, e.timeout, command)
	switch {
	case out.canceled:
		return psagent.CommandResult{
			Output:    "Error: Command execution canceled.",
			ErrorKind: psagent.ErrorKindCanceled,
		}
	case out.timedOut:
		return psagent.CommandResult{
			Output:    TimeoutMessage(e.timeout),
			ErrorKind: psagent.ErrorKindTimeout,
		}
	case out.launch != nil:
		return psagent.CommandResult{
			Output:    "Error: " + out.launch.Error(),
			ErrorKind: psagent.ErrorKindLaunchFailure,
		}
	case out.exitCode != 0:
		return psagent.CommandResult{
			Output:    "Error executing command: " + strings.TrimSpace(out.stderr),
			ErrorKind: psagent.ErrorKindNonZeroExit,
		}
	}
	text := strings.TrimSpace(out.stdout)
	if text == "" {
		text = NoOutputMessage
	}
	return psagent.CommandResult{Succeeded: true, Output: text}
}
