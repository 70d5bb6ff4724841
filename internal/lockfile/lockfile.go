// Package lockfile enforces the one-watcher-per-workspace rule with a
// PID file. Acquiring the lock terminates a live prior owner (best-effort)
// and reclaims stale locks left behind by dead processes; releasing is
// idempotent and safe to run on every exit path.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotOwner is returned by Release when the lock file on disk names a
// different process. The file is left untouched.
var ErrNotOwner = errors.New("lock file is owned by another process")

// Lock is an acquired instance lock. The zero value is not usable; call
// Acquire.
type Lock struct {
	path     string
	pid      int
	released bool
}

// Acquire takes ownership of the lock file at path. If the file names a
// live process, that process is sent a termination signal and Acquire
// waits up to grace before reclaiming. A stale file from a dead process is
// reclaimed immediately. onReclaim, if non-nil, is called with the prior
// owner's PID before reclaiming.
func Acquire(path string, grace time.Duration, onReclaim func(pid int)) (*Lock, error) {
	if prior, ok := ReadOwner(path); ok {
		if onReclaim != nil {
			onReclaim(prior)
		}
		// Best-effort: the process may exit (or already be gone) before
		// the signal lands.
		_ = terminate(prior)
		waitForExit(prior, grace)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}

	self := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(self)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing lock file: %w", err)
	}
	return &Lock{path: path, pid: self}, nil
}

// Release removes the lock file. It is idempotent: releasing twice, or
// releasing after the file has already disappeared, returns nil. If the
// file has been taken over by another process it is left in place and
// ErrNotOwner is returned.
func (l *Lock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true

	owner, ok := readPID(l.path)
	if !ok {
		return nil
	}
	if owner != l.pid {
		return ErrNotOwner
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// ReadOwner reports the PID recorded in the lock file and whether that
// process is still alive. A missing or malformed file reports (0, false).
func ReadOwner(path string) (int, bool) {
	pid, ok := readPID(path)
	if !ok {
		return 0, false
	}
	if !alive(pid) {
		return pid, false
	}
	return pid, true
}

// Terminate asks the process with the given PID to exit. On Unix this is
// SIGTERM; on Windows the process is killed.
func Terminate(pid int) error {
	return terminate(pid)
}

// readPID parses the single-PID-line lock file format.
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// waitForExit polls until pid is gone or the grace interval elapses.
func waitForExit(pid int, grace time.Duration) {
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !alive(pid) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
