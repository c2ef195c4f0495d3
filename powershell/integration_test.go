package powershell_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/fwojciec/psagent"
	"github.com/fwojciec/psagent/powershell"
	"github.com/stretchr/testify/assert"
)

// requirePowerShell skips the test unless the default interpreter is
// installed.
func requirePowerShell(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PowerShell test in short mode")
	}
	if _, err := exec.LookPath(powershell.DefaultInterpreter().Path); err != nil {
		t.Skip("PowerShell not installed")
	}
}

func TestPowerShell_Executor(t *testing.T) {
	t.Parallel()
	requirePowerShell(t)
	e := powershell.NewExecutor()

	t.Run("writes output", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello", e.Execute(context.Background(), "Write-Output 'hello'"))
	})

	t.Run("no output", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, powershell.NoOutputMessage, e.Execute(context.Background(), "$null = 1"))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		t.Parallel()
		got := e.Run(context.Background(), "[Console]::Error.WriteLine('bad'); exit 3")
		assert.Equal(t, psagent.ErrorKindNonZeroExit, got.ErrorKind)
		assert.Equal(t, "Error executing command: bad", got.Output)
	})
}

func TestPowerShell_HelpResolver(t *testing.T) {
	t.Parallel()
	requirePowerShell(t)
	h := powershell.NewHelpResolver()

	got := h.Lookup(context.Background(), "Get-Process")
	assert.True(t, got.Succeeded)
	assert.Contains(t, got.Output, "Get-Process")

	got = h.Lookup(context.Background(), "zzqqxxnotacommand")
	assert.Equal(t, psagent.ErrorKindNoResultsFound, got.ErrorKind)
}
