// Package watch implements the incremental rebuild loop: poll a set of
// tracked files for modification-time divergence, debounce bursts of
// saves, run at most one build at a time, and fall back to a clean
// rebuild when the primary build fails. Build failures never stop the
// loop; only context cancellation does.
package watch

import (
	"context"
	"time"
)

// Runner is the build collaborator. Build attempts a complete
// compilation; CleanBuild clears cached intermediate state first and is
// the recovery path after a Build failure.
type Runner interface {
	Build(ctx context.Context) error
	CleanBuild(ctx context.Context) error
	LogTail() string
}

// Stager validates and stages the final artifact after a successful
// build, returning the staged path.
type Stager interface {
	Stage() (string, error)
}

// UI receives watcher lifecycle notifications.
type UI interface {
	ChangeDetected(path string)
	BuildStarted(trigger string)
	BuildSucceeded(artifact string, d time.Duration)
	BuildFailed(err error)
	ArtifactMissing(err error)
	FallbackStarted()
	FallbackSucceeded(d time.Duration)
	FallbackFailed(err error)
}

// Recorder persists completed session results. Implementations must not
// fail the loop; errors are theirs to log.
type Recorder interface {
	Record(r Result)
}

// Watcher owns the watch set and the single in-flight build session.
// All loop state is confined to the goroutine running Run or RunEvents.
type Watcher struct {
	Set      *WatchSet
	Runner   Runner
	Stager   Stager   // optional; nil skips artifact staging
	UI       UI
	Recorder Recorder // optional
	Root     string   // project root, used to shorten paths for display

	PollInterval time.Duration
	Debounce     time.Duration

	phase    Phase
	inFlight bool
}

// Phase returns the current session phase.
func (w *Watcher) Phase() Phase { return w.phase }

// Run executes the polling loop until ctx is cancelled. Each cycle
// re-stats the watch set; the first divergent path opens a build session.
// Cancellation at any point — between cycles, during the debounce wait,
// or mid-build — exits without draining in-flight work.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		if trigger := w.Set.FirstDivergent(); trigger != "" {
			w.runSession(ctx, trigger)
		}
		if !sleepCtx(ctx, w.PollInterval) {
			return nil
		}
	}
}

// RunEvents consumes triggers from a native filesystem-event observer
// instead of polling. The divergence → debounce → single-flight contract
// is identical; only the detection strategy differs. Triggers that
// arrive while a session is in flight are absorbed: the post-session
// refresh records their timestamps without opening another session.
func (w *Watcher) RunEvents(ctx context.Context, triggers <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case trigger, ok := <-triggers:
			if !ok {
				return nil
			}
			if !w.Set.Contains(trigger) {
				// A file created after startup joins the watch set.
				w.Set.Record(trigger, time.Time{})
			}
			w.runSession(ctx, trigger)
			w.absorb(triggers)
		}
	}
}

// absorb drains triggers queued during the session and records their
// current timestamps so they do not re-open a session. Last write wins
// only if it happens after this refresh.
func (w *Watcher) absorb(triggers <-chan string) {
	for {
		select {
		case _, ok := <-triggers:
			if !ok {
				return
			}
		default:
			w.Set.Refresh()
			return
		}
	}
}

// runSession drives one build session through the phase machine:
// Debouncing → Building → Idle on success, Building → Recovering → Idle
// on failure. At most one session runs at a time; a trigger arriving
// while one is active only refreshes recorded timestamps.
func (w *Watcher) runSession(ctx context.Context, trigger string) {
	if w.inFlight {
		w.Set.Refresh()
		return
	}
	w.inFlight = true
	defer func() {
		w.inFlight = false
		w.phase = PhaseIdle
	}()

	display := rel(w.Root, trigger)
	w.phase = PhaseDebouncing
	w.UI.ChangeDetected(display)

	// Let the burst of editor writes settle before reading final state.
	if !sleepCtx(ctx, w.Debounce) {
		return
	}

	// Close the global debounce window: record every tracked path's
	// current timestamp so the whole burst yields exactly one build.
	w.Set.Refresh()

	start := time.Now()
	res := Result{Trigger: display}

	w.phase = PhaseBuilding
	w.UI.BuildStarted(display)

	err := w.Runner.Build(ctx)
	if ctx.Err() != nil {
		return // shutdown mid-build; no fallback, no record
	}

	if err == nil {
		res.Outcome = OutcomeOK
		res.Artifact = w.stage(&res)
		if res.Outcome == OutcomeOK {
			w.UI.BuildSucceeded(res.Artifact, time.Since(start))
		}
	} else {
		w.UI.BuildFailed(err)
		w.phase = PhaseRecovering
		w.UI.FallbackStarted()
		res.Fallback = true

		ferr := w.Runner.CleanBuild(ctx)
		if ctx.Err() != nil {
			return
		}
		if ferr == nil {
			res.Outcome = OutcomeRecovered
			res.Artifact = w.stage(&res)
			if res.Outcome == OutcomeRecovered {
				w.UI.FallbackSucceeded(time.Since(start))
			}
		} else {
			res.Outcome = OutcomeFallbackFailed
			w.UI.FallbackFailed(ferr)
		}
	}

	res.DurationMs = time.Since(start).Milliseconds()
	res.LogTail = w.Runner.LogTail()
	if w.Recorder != nil {
		w.Recorder.Record(res)
	}
}

// stage runs artifact staging after a successful build. A missing
// artifact despite a reported success downgrades the outcome to failed
// for the record, but never crashes the loop and never triggers the
// fallback.
func (w *Watcher) stage(res *Result) string {
	if w.Stager == nil {
		return ""
	}
	path, err := w.Stager.Stage()
	if err != nil {
		w.UI.ArtifactMissing(err)
		res.Outcome = OutcomeFailed
		return ""
	}
	return path
}

// sleepCtx sleeps for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
