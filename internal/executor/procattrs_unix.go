//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// setProcAttrs puts the spawned child in its own process group, so a
// signal can later be forwarded to it and every grandchild a shell step
// spawns, not just the immediate child (grounded on the teacher's daemon
// process manager, which uses the same Setpgid for the same reason).
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// forwardSignal relays SIGTERM to the child's entire process group via the
// negative-PID convention. If that SIGTERM cannot be sent (for any reason
// other than the group being gone already), it sends SIGKILL to the group
// instead. It does not wait; the grace period and the final kill of a child
// that is still running are handled by runStep.
func forwardSignal(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid := cmd.Process.Pid
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}
}
