//go:build !windows

package lockfile

import (
	"os"
	"syscall"
)

// alive reports whether a process with the given PID exists. Signal 0
// performs the existence check without delivering anything; EPERM means
// the process exists but belongs to another user.
func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

// terminate sends SIGTERM to the process with the given PID.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
