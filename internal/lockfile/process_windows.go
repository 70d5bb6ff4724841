//go:build windows

package lockfile

import "os"

// alive reports whether a process with the given PID exists. On Windows,
// FindProcess fails for nonexistent PIDs, which is the whole check.
func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

// terminate kills the process with the given PID. Windows has no SIGTERM;
// Kill is the closest equivalent.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
