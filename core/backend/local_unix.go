//go:build !windows

package backend

import (
	"os/exec"
	"syscall"
)

// configureCommandForCancellation creates a dedicated process group so
// cancellation can terminate the whole tree, not just the shell.
func configureCommandForCancellation(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateCommandOnCancel sends SIGTERM to the process group. Best
// effort: a process that ignores SIGTERM outlives the call, matching
// spec.md §5's "best-effort cancellation" contract.
func terminateCommandOnCancel(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}
