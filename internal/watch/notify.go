package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Observer converts native filesystem events into watcher triggers. It
// is the alternative observation strategy to polling: same divergence →
// debounce → single-flight contract downstream, different detection.
type Observer struct {
	Triggers <-chan string // read-only external channel

	triggers chan string
	done     chan struct{}
	watcher  *fsnotify.Watcher
	ext      string
	extras   map[string]bool
}

// NewObserver creates an observer for the given directories. Files are
// filtered to the tracked extension plus the named extra files (main
// document, bibliography).
func NewObserver(dirs []string, ext string, extras ...string) (*Observer, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extraSet := make(map[string]bool, len(extras))
	for _, e := range extras {
		if e != "" {
			extraSet[filepath.Clean(e)] = true
		}
	}

	ch := make(chan string, 16)
	o := &Observer{
		Triggers: ch,
		triggers: ch,
		done:     make(chan struct{}),
		watcher:  fw,
		ext:      ext,
		extras:   extraSet,
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	for e := range extraSet {
		// Watch the containing directory; editors replace files via
		// temp + rename, which only the directory watch sees reliably.
		if err := fw.Add(filepath.Dir(e)); err != nil {
			fw.Close()
			return nil, err
		}
	}

	return o, nil
}

// Start begins forwarding events.
func (o *Observer) Start() {
	go o.loop()
}

// Stop closes the native watcher and waits for the forwarding loop to
// exit before closing the trigger channel.
func (o *Observer) Stop() {
	o.watcher.Close()
	<-o.done
	close(o.triggers)
}

func (o *Observer) loop() {
	defer close(o.done)

	for {
		select {
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			if !o.tracked(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				select {
				case o.triggers <- event.Name:
				default:
					// The watcher is mid-session; the post-session
					// refresh will absorb this change anyway.
				}
			}

		case _, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; polling remains the fallback
			// strategy at a higher level.
		}
	}
}

// tracked reports whether an event path is of interest.
func (o *Observer) tracked(name string) bool {
	if o.extras[filepath.Clean(name)] {
		return true
	}
	return strings.HasSuffix(filepath.Base(name), o.ext)
}
