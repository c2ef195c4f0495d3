//go:build windows

package powershell

import (
	osexec "os/exec"
	"strconv"
)

// configureProcess kills the interpreter's whole process tree on timeout.
// If taskkill itself fails, WaitDelay falls back to Process.Kill.
func configureProcess(cmd *osexec.Cmd) {
	cmd.Cancel = func() error {
		kill := osexec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		_ = kill.Run()
		return nil
	}
}
