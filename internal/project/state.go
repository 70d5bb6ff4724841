package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const stateFileName = "state.toml"

// StateDirName is the per-project directory holding galley's bookkeeping
// files (state, lock, history).
const StateDirName = ".galley"

// State records the outcome of the most recent build so that status
// reporting works across watcher restarts.
type State struct {
	Version   int          `toml:"version"`
	LastBuild *BuildRecord `toml:"last_build,omitempty"`
}

// BuildRecord is the persisted summary of one build session.
type BuildRecord struct {
	Trigger    string    `toml:"trigger"`
	Outcome    string    `toml:"outcome"`
	Artifact   string    `toml:"artifact,omitempty"`
	FinishedAt time.Time `toml:"finished_at"`
}

// LoadState reads the state file from the project root. Returns an empty
// state if the file does not exist.
func LoadState(root string) (*State, error) {
	path := filepath.Join(root, StateDirName, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Version: 1}, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state State
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return &state, nil
}

// SaveState writes the state file atomically (write temp + rename).
func SaveState(root string, state *State) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	dir := filepath.Join(root, StateDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	path := filepath.Join(dir, stateFileName)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming state file: %w", err)
	}
	return nil
}
