// Package powershell runs PowerShell commands and help lookups in a
// subprocess on behalf of the agent.
//
// Commands are executed exactly as the model wrote them. There is no
// allow-list, deny-list or confirmation gate: the model is the trust
// boundary, and the only enforced limit is the wall-clock timeout.
package powershell

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
)

const (
	// DefaultTimeout bounds a single command execution.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchTimeout bounds each of the two help lookup steps.
	DefaultSearchTimeout = 15 * time.Second

	// waitDelay bounds how long Wait blocks on pipes held open by
	// grandchildren after the interpreter itself has gone away.
	waitDelay = 2 * time.Second
)

// NoOutputMessage is returned for a successful command that printed nothing.
const NoOutputMessage = "Command executed successfully with no output."

// Interpreter is the fixed shell binary commands are handed to. The command
// text is appended to Args as a single argv element.
type Interpreter struct {
	Path string
	Args []string
}

// DefaultInterpreter returns Windows PowerShell on Windows and PowerShell 7
// (pwsh) everywhere else.
func DefaultInterpreter() Interpreter {
	args := []string{"-NoProfile", "-NonInteractive", "-Command"}
	if runtime.GOOS == "windows" {
		return Interpreter{Path: "powershell", Args: args}
	}
	return Interpreter{Path: "pwsh", Args: args}
}

// ParseInterpreter parses a command line such as
// "pwsh -NoProfile -Command" into an Interpreter.
func ParseInterpreter(s string) (Interpreter, error) {
	fields, err := shellwords.Parse(s)
	if err != nil {
		return Interpreter{}, fmt.Errorf("parse interpreter %q: %w", s, err)
	}
	if len(fields) == 0 {
		return Interpreter{}, fmt.Errorf("parse interpreter: empty command line")
	}
	return Interpreter{Path: fields[0], Args: fields[1:]}, nil
}

// argv returns the full argument list for running script.
func (in Interpreter) argv(script string) []string {
	return append(slices.Clone(in.Args), script)
}

// String renders the interpreter for display.
func (in Interpreter) String() string {
	return strings.Join(append([]string{in.Path}, in.Args...), " ")
}

// Option configures an Executor or a HelpResolver.
type Option func(*options)

type options struct {
	interp  Interpreter
	timeout time.Duration
}

// WithInterpreter overrides DefaultInterpreter.
func WithInterpreter(in Interpreter) Option {
	return func(o *options) { o.interp = in }
}

// WithTimeout overrides the wall-clock limit. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func newOptions(timeout time.Duration, opts []Option) options {
	o := options{interp: DefaultInterpreter(), timeout: timeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TimeoutMessage is the text returned when a command exceeds limit.
func TimeoutMessage(limit time.Duration) string {
	return fmt.Sprintf("Error: Command execution timed out (%s limit).", formatLimit(limit))
}

func formatLimit(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	}
	return d.String()
}
