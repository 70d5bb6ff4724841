package watch

// Phase represents a stage in the build session lifecycle.
type Phase int

const (
	PhaseIdle       Phase = iota // No change detected, watching.
	PhaseDebouncing              // Change detected, waiting for the burst to settle.
	PhaseBuilding                // Primary build running.
	PhaseRecovering              // Primary build failed, clean rebuild running.
)

// String returns the snake_case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseBuilding:
		return "building"
	case PhaseRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// Outcome classifies how a build session ended.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"              // primary build succeeded
	OutcomeFailed         Outcome = "failed"          // primary failed; see Fallback for what happened next
	OutcomeRecovered      Outcome = "recovered"       // primary failed, fallback succeeded
	OutcomeFallbackFailed Outcome = "fallback_failed" // both primary and fallback failed
)

// Result summarizes one completed build session.
type Result struct {
	Trigger    string  // path whose change opened the session
	Outcome    Outcome // how the session ended
	Fallback   bool    // whether the fallback build ran
	DurationMs int64
	Artifact   string // staged artifact path, when one was produced
	LogTail    string // tail of the toolchain output
}
