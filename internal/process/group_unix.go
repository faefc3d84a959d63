//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Isolate places the command in its own process group and arranges for the
// whole group to be killed when the command's context is done. TeX engines
// spawn helpers (mktexpk, kpsewhich) that would otherwise outlive a timeout.
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return nil
	}
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; exec.Cmd.Wait still reaps the leader.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
