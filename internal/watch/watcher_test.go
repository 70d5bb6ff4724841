package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeRunner counts invocations and fails on demand.
type fakeRunner struct {
	builds    int
	cleans    int
	failBuild bool
	failClean bool
}

func (f *fakeRunner) Build(ctx context.Context) error {
	f.builds++
	if f.failBuild {
		return errors.New("compile error")
	}
	return nil
}

func (f *fakeRunner) CleanBuild(ctx context.Context) error {
	f.cleans++
	if f.failClean {
		return errors.New("clean rebuild failed")
	}
	return nil
}

func (f *fakeRunner) LogTail() string { return "tool output tail" }

// nopUI satisfies UI without output.
type nopUI struct {
	artifactMissing   int
	fallbackSucceeded int
}

func (u *nopUI) ChangeDetected(string)                {}
func (u *nopUI) BuildStarted(string)                  {}
func (u *nopUI) BuildSucceeded(string, time.Duration) {}
func (u *nopUI) BuildFailed(error)                    {}
func (u *nopUI) ArtifactMissing(error)                { u.artifactMissing++ }
func (u *nopUI) FallbackStarted()                     {}
func (u *nopUI) FallbackSucceeded(time.Duration)      { u.fallbackSucceeded++ }
func (u *nopUI) FallbackFailed(error)                 {}

// captureRecorder keeps every recorded result.
type captureRecorder struct {
	results []Result
}

func (c *captureRecorder) Record(r Result) { c.results = append(c.results, r) }

// failingStager simulates a build that reported success without
// producing the artifact.
type failingStager struct{}

func (failingStager) Stage() (string, error) { return "", errors.New("artifact missing") }

func newTestWatcher(t *testing.T, root string, runner *fakeRunner) (*Watcher, *captureRecorder) {
	t.Helper()
	set, err := Scan([]string{root}, ".tex")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	rec := &captureRecorder{}
	return &Watcher{
		Set:          set,
		Runner:       runner,
		UI:           &nopUI{},
		Recorder:     rec,
		Root:         root,
		PollInterval: 5 * time.Millisecond,
		Debounce:     25 * time.Millisecond,
	}, rec
}

func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	when := time.Now().Add(offset)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func TestRunSession_SuccessNoFallback(t *testing.T) {
	runner := &fakeRunner{}
	w, rec := newTestWatcher(t, t.TempDir(), runner)
	w.Debounce = 0

	w.runSession(context.Background(), "a.tex")

	if runner.builds != 1 {
		t.Errorf("builds = %d, want 1", runner.builds)
	}
	if runner.cleans != 0 {
		t.Errorf("cleans = %d, want 0 on success", runner.cleans)
	}
	if len(rec.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(rec.results))
	}
	r := rec.results[0]
	if r.Outcome != OutcomeOK || r.Fallback {
		t.Errorf("result = %+v, want ok without fallback", r)
	}
	if w.Phase() != PhaseIdle {
		t.Errorf("phase after session = %v, want idle", w.Phase())
	}
}

func TestRunSession_FallbackExactlyOnceOnFailure(t *testing.T) {
	runner := &fakeRunner{failBuild: true}
	w, rec := newTestWatcher(t, t.TempDir(), runner)
	w.Debounce = 0

	w.runSession(context.Background(), "a.tex")

	if runner.builds != 1 || runner.cleans != 1 {
		t.Errorf("builds = %d, cleans = %d; want 1 and 1", runner.builds, runner.cleans)
	}
	if len(rec.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(rec.results))
	}
	r := rec.results[0]
	if r.Outcome != OutcomeRecovered || !r.Fallback {
		t.Errorf("result = %+v, want recovered with fallback", r)
	}
}

func TestRunSession_BothFailLoopSurvives(t *testing.T) {
	runner := &fakeRunner{failBuild: true, failClean: true}
	w, rec := newTestWatcher(t, t.TempDir(), runner)
	w.Debounce = 0

	w.runSession(context.Background(), "a.tex")

	if len(rec.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(rec.results))
	}
	if rec.results[0].Outcome != OutcomeFallbackFailed {
		t.Errorf("outcome = %v, want fallback_failed", rec.results[0].Outcome)
	}
	if w.Phase() != PhaseIdle {
		t.Errorf("phase = %v, want idle after double failure", w.Phase())
	}
}

func TestRunSession_SingleFlight(t *testing.T) {
	runner := &fakeRunner{}
	w, _ := newTestWatcher(t, t.TempDir(), runner)
	w.Debounce = 0

	w.inFlight = true
	w.runSession(context.Background(), "a.tex")

	if runner.builds != 0 {
		t.Errorf("builds = %d, want 0 while a session is in flight", runner.builds)
	}
}

func TestRunSession_ArtifactMissingIsLoggedNotFatal(t *testing.T) {
	runner := &fakeRunner{}
	w, rec := newTestWatcher(t, t.TempDir(), runner)
	w.Debounce = 0
	w.Stager = failingStager{}
	ui := &nopUI{}
	w.UI = ui

	w.runSession(context.Background(), "a.tex")

	if ui.artifactMissing != 1 {
		t.Errorf("ArtifactMissing notifications = %d, want 1", ui.artifactMissing)
	}
	if runner.cleans != 0 {
		t.Errorf("cleans = %d; a missing artifact must not trigger the fallback", runner.cleans)
	}
	if rec.results[0].Outcome != OutcomeFailed {
		t.Errorf("outcome = %v, want failed for the record", rec.results[0].Outcome)
	}
}

func TestRunSession_FallbackArtifactMissingNotAnnouncedAsSuccess(t *testing.T) {
	runner := &fakeRunner{failBuild: true}
	w, rec := newTestWatcher(t, t.TempDir(), runner)
	w.Debounce = 0
	w.Stager = failingStager{}
	ui := &nopUI{}
	w.UI = ui

	w.runSession(context.Background(), "a.tex")

	if ui.fallbackSucceeded != 0 {
		t.Errorf("FallbackSucceeded notifications = %d, want 0 when staging fails", ui.fallbackSucceeded)
	}
	if ui.artifactMissing != 1 {
		t.Errorf("ArtifactMissing notifications = %d, want 1", ui.artifactMissing)
	}
	r := rec.results[0]
	if r.Outcome != OutcomeFailed || !r.Fallback {
		t.Errorf("result = %+v, want failed with fallback for the record", r)
	}
}

func TestRun_BurstYieldsOneBuild(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.tex")
	writeFile(t, path, "v1")

	runner := &fakeRunner{}
	w, rec := newTestWatcher(t, root, runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Simulate an editor burst: several writes within one debounce window.
	for i := 1; i <= 4; i++ {
		touch(t, path, time.Duration(i)*time.Second)
		time.Sleep(4 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if runner.builds != 1 {
		t.Errorf("builds = %d, want exactly 1 for a single burst", runner.builds)
	}
	if len(rec.results) != 1 {
		t.Errorf("recorded %d results, want 1", len(rec.results))
	}

	// The recorded timestamp must be the latest write in the burst.
	if got := w.Set.FirstDivergent(); got != "" {
		t.Errorf("FirstDivergent after settle = %q, want empty", got)
	}
}

func TestRun_EmptyWatchSetNeverBuilds(t *testing.T) {
	runner := &fakeRunner{}
	w, _ := newTestWatcher(t, t.TempDir(), runner)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if runner.builds != 0 {
		t.Errorf("builds = %d, want 0 with nothing tracked", runner.builds)
	}
}

func TestRun_SeparateChangesSeparateBuilds(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.tex")
	writeFile(t, path, "v1")

	runner := &fakeRunner{}
	w, _ := newTestWatcher(t, root, runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	touch(t, path, time.Second)
	time.Sleep(150 * time.Millisecond)
	touch(t, path, 2*time.Second)
	time.Sleep(150 * time.Millisecond)

	cancel()
	<-done

	if runner.builds != 2 {
		t.Errorf("builds = %d, want 2 for two settled changes", runner.builds)
	}
}

func TestRunEvents_TriggerBuildsOnce(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.tex")
	writeFile(t, path, "v1")

	runner := &fakeRunner{}
	w, _ := newTestWatcher(t, root, runner)
	w.Debounce = 10 * time.Millisecond

	triggers := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.RunEvents(ctx, triggers)
	}()

	triggers <- path
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if runner.builds != 1 {
		t.Errorf("builds = %d, want 1", runner.builds)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseIdle, "idle"},
		{PhaseDebouncing, "debouncing"},
		{PhaseBuilding, "building"},
		{PhaseRecovering, "recovering"},
		{Phase(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
