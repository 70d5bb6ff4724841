package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bindery/galley/internal/watch"
)

// Bridge forwards watcher callbacks into a running bubbletea program. It
// satisfies both watch.UI and watch.Recorder so the watcher needs no
// knowledge of the terminal layer.
type Bridge struct {
	send func(tea.Msg)
}

// NewBridge wires callbacks to the given send function, normally
// (*tea.Program).Send.
func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

func (b *Bridge) ChangeDetected(path string) {
	b.send(ChangeMsg{Path: path})
	b.send(PhaseMsg{Phase: watch.PhaseDebouncing})
}

func (b *Bridge) BuildStarted(trigger string) {
	b.send(PhaseMsg{Phase: watch.PhaseBuilding})
}

func (b *Bridge) BuildSucceeded(artifact string, d time.Duration) {
	b.send(PhaseMsg{Phase: watch.PhaseIdle})
}

func (b *Bridge) BuildFailed(err error) {}

func (b *Bridge) ArtifactMissing(err error) {
	b.send(PhaseMsg{Phase: watch.PhaseIdle})
}

func (b *Bridge) FallbackStarted() {
	b.send(PhaseMsg{Phase: watch.PhaseRecovering})
}

func (b *Bridge) FallbackSucceeded(d time.Duration) {
	b.send(PhaseMsg{Phase: watch.PhaseIdle})
}

func (b *Bridge) FallbackFailed(err error) {
	b.send(PhaseMsg{Phase: watch.PhaseIdle})
}

// Record forwards a finished session to the dashboard.
func (b *Bridge) Record(r watch.Result) {
	b.send(SessionMsg{Result: r})
}
