// Package ui provides stderr-based output for galley. The Printer
// satisfies the watcher's notification interface; a TUI bridge can stand
// in for it when the dashboard is active.
package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/bindery/galley/internal/ansi"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) Banner() {
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ╔═══════════════════════════════════╗"+ansi.Reset)
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ║"+ansi.Reset+ansi.Bold+"   GALLEY  "+ansi.Dim+"document build watcher"+ansi.Reset+ansi.Bold+ansi.Cyan+"  ║"+ansi.Reset)
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ╚═══════════════════════════════════╝"+ansi.Reset)
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) Watching(fileCount int, root string) {
	fmt.Fprintf(os.Stderr, ansi.Cyan+"◆ watching"+ansi.Reset+" %d file(s) under %s\n", fileCount, root)
}

func (p *Printer) ChangeDetected(path string) {
	fmt.Fprintf(os.Stderr, ansi.Yellow+"~ change"+ansi.Reset+" %s\n", path)
}

func (p *Printer) BuildStarted(trigger string) {
	fmt.Fprintf(os.Stderr, ansi.Blue+ansi.Bold+"▶ build"+ansi.Reset+ansi.Dim+" triggered by %s"+ansi.Reset+"\n", trigger)
}

func (p *Printer) BuildSucceeded(artifact string, d time.Duration) {
	fmt.Fprintf(os.Stderr, ansi.Green+ansi.Bold+"✓ build ok"+ansi.Reset+ansi.Dim+" (%s)"+ansi.Reset, FormatDuration(d))
	if artifact != "" {
		fmt.Fprintf(os.Stderr, " → %s", artifact)
	}
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) BuildFailed(err error) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"✗ build failed"+ansi.Reset+" — %v\n", err)
}

func (p *Printer) ArtifactMissing(err error) {
	fmt.Fprintf(os.Stderr, ansi.Red+"✗ no artifact"+ansi.Reset+" despite reported success: %v\n", err)
}

func (p *Printer) FallbackStarted() {
	fmt.Fprintln(os.Stderr, ansi.Magenta+"↻ clean rebuild"+ansi.Reset+ansi.Dim+" clearing intermediates and retrying"+ansi.Reset)
}

func (p *Printer) FallbackSucceeded(d time.Duration) {
	fmt.Fprintf(os.Stderr, ansi.Green+ansi.Bold+"✓ recovered"+ansi.Reset+ansi.Dim+" (%s)"+ansi.Reset+"\n", FormatDuration(d))
}

func (p *Printer) FallbackFailed(err error) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"✗ clean rebuild failed"+ansi.Reset+" — %v\n", err)
	fmt.Fprintln(os.Stderr, ansi.Dim+"  last good artifact left in place; will retry on next change"+ansi.Reset)
}

func (p *Printer) LockReclaimed(pid int) {
	fmt.Fprintf(os.Stderr, ansi.Yellow+"⚠ another watcher (pid %d) owned the lock"+ansi.Reset+" — taking over\n", pid)
}

func (p *Printer) Shutdown() {
	fmt.Fprintln(os.Stderr, ansi.Dim+"watcher stopped"+ansi.Reset)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}

// FormatDuration renders a duration the way build logs read naturally:
// sub-second in milliseconds, otherwise seconds with one decimal.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
