//go:build !windows

package powershell

import (
	osexec "os/exec"
	"syscall"
)

// configureProcess starts the interpreter in its own process group so a
// timeout kills every process it spawned, not just the interpreter.
func configureProcess(cmd *osexec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
