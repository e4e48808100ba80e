//go:build windows

package backend

import "os/exec"

func configureCommandForCancellation(_ *exec.Cmd) {
	// Windows has no Unix process-group model to opt into here.
}

func terminateCommandOnCancel(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
