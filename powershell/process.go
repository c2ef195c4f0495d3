package powershell

import (
	"bytes"
	"context"
	"errors"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// outcome is what one interpreter process produced.
type outcome struct {
	stdout   string
	stderr   string
	exitCode int
	launch   error // interpreter could not be started
	timedOut bool
	canceled bool // parent context was cancelled
}

func (o outcome) ok() bool {
	return o.launch == nil && !o.timedOut && !o.canceled && o.exitCode == 0
}

// run starts one interpreter process for script and blocks until it exits or
// the timeout fires. Each call owns its buffers, so concurrent runs never
// share output.
func (in Interpreter) run(parent context.Context, timeout time.Duration, script string) outcome {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cmd := osexec.CommandContext(ctx, in.Path, in.argv(script)...)
	configureProcess(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if errors.Is(err, osexec.ErrWaitDelay) {
		// The interpreter exited on its own; a leftover grandchild kept the
		// pipes open. Judge the run by the interpreter's own exit status.
		err = nil
		if cmd.ProcessState != nil && !cmd.ProcessState.Success() {
			err = &osexec.ExitError{ProcessState: cmd.ProcessState}
		}
	}

	out := outcome{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *osexec.ExitError
	switch {
	case err == nil:
	case parent.Err() != nil:
		out.canceled = true
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		out.timedOut = true
	case errors.As(err, &exitErr):
		out.exitCode = exitErr.ExitCode()
	default:
		out.launch = err
	}

	logrus.WithFields(logrus.Fields{
		"interpreter": in.Path,
		"script":      abbreviate(script, 80),
		"duration":    time.Since(start).Round(time.Millisecond),
		"exit_code":   out.exitCode,
		"timed_out":   out.timedOut,
		"canceled":    out.canceled,
	}).Debug("interpreter finished")
	if out.launch != nil {
		logrus.WithError(out.launch).WithField("interpreter", in.Path).Warn("interpreter failed to start")
	}
	return out
}

func abbreviate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
