package psagent_test

import (
	"testing"

	"github.com/fwojciec/psagent"
	"github.com/stretchr/testify/assert"
)

func TestCommandResult_ToolResult(t *testing.T) {
	t.Parallel()

	t.Run("success is a plain result", func(t *testing.T) {
		t.Parallel()
		r := psagent.CommandResult{Succeeded: true, Output: "hello"}.ToolResult()
		assert.False(t, r.IsError)
		assert.Equal(t, "hello", r.Text())
	})

	t.Run("failure keeps its text and is flagged", func(t *testing.T) {
		t.Parallel()
		r := psagent.CommandResult{
			Output:    "Error: Command execution timed out (30 seconds limit).",
			ErrorKind: psagent.ErrorKindTimeout,
		}.ToolResult()
		assert.True(t, r.IsError)
		assert.Equal(t, "Error: Command execution timed out (30 seconds limit).", r.Text())
	})
}

func TestErrorKind_String(t *testing.T) {
	t.Parallel()
	tests := map[psagent.ErrorKind]string{
		psagent.ErrorKindNone:           "none",
		psagent.ErrorKindNonZeroExit:    "non_zero_exit",
		psagent.ErrorKindTimeout:        "timeout",
		psagent.ErrorKindLaunchFailure:  "launch_failure",
		psagent.ErrorKindNoResultsFound: "no_results_found",
		psagent.ErrorKindCanceled:       "canceled",
		psagent.ErrorKind(99):           "unknown",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}
