package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// ErrMissingRoot is returned by Scan when the primary watched directory
// does not exist. An empty directory is fine; a missing one is a
// configuration error.
var ErrMissingRoot = errors.New("watched directory does not exist")

// WatchSet maps each tracked path to its last observed modification time.
// Paths that disappear keep their stale entry and simply never diverge
// again. The set is owned by a single watcher loop and is not safe for
// concurrent use.
type WatchSet struct {
	entries map[string]time.Time
}

// Scan enumerates the tracked files: every file under the given dirs with
// the tracked extension, plus any extra single files that exist (main
// document, bibliography). The first dir is the primary watched root and
// must exist.
func Scan(dirs []string, ext string, extras ...string) (*WatchSet, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: no directories configured", ErrMissingRoot)
	}
	if _, err := os.Stat(dirs[0]); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingRoot, dirs[0])
	}

	set := &WatchSet{entries: make(map[string]time.Time)}

	// Guards entries during the parallel walk only; afterwards the set is
	// single-owner per the watcher contract.
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: false}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			// Secondary dirs may appear later; skip quietly.
			continue
		}
		err := fastwalk.Walk(conf, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are not tracked
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			mu.Lock()
			set.entries[path] = info.ModTime()
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	for _, extra := range extras {
		if extra == "" {
			continue
		}
		info, err := os.Stat(extra)
		if err != nil {
			continue // optional files may not exist
		}
		set.entries[extra] = info.ModTime()
	}

	return set, nil
}

// Len returns the number of tracked paths.
func (s *WatchSet) Len() int { return len(s.entries) }

// Paths returns the tracked paths in sorted order.
func (s *WatchSet) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Contains reports whether path is tracked.
func (s *WatchSet) Contains(path string) bool {
	_, ok := s.entries[path]
	return ok
}

// FirstDivergent re-stats the tracked paths and returns the first one
// whose current modification time differs from the recorded value, or ""
// when nothing changed. Recorded values are not updated; absent files
// never diverge.
func (s *WatchSet) FirstDivergent() string {
	for _, path := range s.Paths() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.ModTime().Equal(s.entries[path]) {
			return path
		}
	}
	return ""
}

// Refresh re-stats every tracked path and records the current
// modification times. This is the close of the global debounce window:
// whatever a burst of saves touched, one refresh absorbs it all.
func (s *WatchSet) Refresh() {
	for path := range s.entries {
		info, err := os.Stat(path)
		if err != nil {
			continue // vanished; stale entry retained
		}
		s.entries[path] = info.ModTime()
	}
}

// Record updates the stored timestamp for a single path. Used when
// changes must be absorbed without opening a session.
func (s *WatchSet) Record(path string, t time.Time) {
	s.entries[path] = t
}

// ModTime returns the recorded timestamp for path.
func (s *WatchSet) ModTime(path string) (time.Time, bool) {
	t, ok := s.entries[path]
	return t, ok
}

// rel shortens path for display, relative to root when possible.
func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}
