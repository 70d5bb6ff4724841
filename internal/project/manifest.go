// Package project loads the galley.toml manifest describing a document
// project and persists per-project build state under .galley/.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the manifest file looked up in the project root.
const ManifestFileName = "galley.toml"

// Manifest describes a document project: what to typeset, where the
// sources live, and how to drive the engine.
type Manifest struct {
	Document DocumentSection `toml:"document"`
	Sources  SourcesSection  `toml:"sources"`
	Build    BuildSection    `toml:"build"`
}

// DocumentSection names the document and its entry point.
type DocumentSection struct {
	Name string `toml:"name"`
	Main string `toml:"main"`
}

// SourcesSection lists where tracked sources live.
type SourcesSection struct {
	Dirs         []string `toml:"dirs"`
	Extension    string   `toml:"extension"`
	Bibliography string   `toml:"bibliography"`
}

// BuildSection configures the engine invocation.
type BuildSection struct {
	Engine string `toml:"engine"`
	Passes int    `toml:"passes"`
}

// LoadManifest reads galley.toml from dir. A missing manifest is not an
// error; it returns (nil, nil) and configuration defaults apply.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFileName, err)
	}

	if m.Document.Name == "" && m.Document.Main != "" {
		// Fall back to the main file's base name sans extension.
		base := filepath.Base(m.Document.Main)
		m.Document.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	return &m, nil
}
