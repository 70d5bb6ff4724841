package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bindery/galley/internal/config"
	"github.com/bindery/galley/internal/history"
	"github.com/bindery/galley/internal/project"
	"github.com/bindery/galley/internal/texbuild"
	"github.com/bindery/galley/internal/ui"
	"github.com/bindery/galley/internal/watch"
)

// projectEnv is the resolved environment for one project: merged
// configuration, the document name, and the absolute project root.
type projectEnv struct {
	cfg  config.Config
	name string
	root string
}

// loadProject loads configuration, overlays the project manifest, and
// applies persistent flag overrides. Precedence, lowest to highest:
// defaults, config file, environment, manifest, flags.
func loadProject(cmd *cobra.Command) (*projectEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	rootDir := cfg.RootDir
	if flagRoot, _ := cmd.Flags().GetString("root"); flagRoot != "" {
		rootDir = flagRoot
	}
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	manifest, err := project.LoadManifest(root)
	if err != nil {
		return nil, err
	}
	mergeManifest(&cfg, manifest)

	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = true
	}

	return &projectEnv{cfg: cfg, name: documentName(&cfg, manifest), root: root}, nil
}

// mergeManifest overlays non-empty manifest values onto the config. The
// manifest is project-local truth; it wins over config file and env.
func mergeManifest(cfg *config.Config, m *project.Manifest) {
	if m == nil {
		return
	}
	if m.Document.Main != "" {
		cfg.MainFile = m.Document.Main
	}
	if len(m.Sources.Dirs) > 0 {
		cfg.SourceDirs = m.Sources.Dirs
	}
	if m.Sources.Extension != "" {
		cfg.SourceExt = m.Sources.Extension
	}
	if m.Sources.Bibliography != "" {
		cfg.BibFile = m.Sources.Bibliography
	}
	if m.Build.Engine != "" {
		cfg.Engine = m.Build.Engine
	}
	if m.Build.Passes > 0 {
		cfg.Passes = m.Build.Passes
	}
}

// documentName picks the artifact base name: the manifest name when set,
// otherwise the main file's base name sans extension.
func documentName(cfg *config.Config, m *project.Manifest) string {
	if m != nil && m.Document.Name != "" {
		return m.Document.Name
	}
	base := filepath.Base(cfg.MainFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// abs resolves p against the project root unless it is already absolute.
func (e *projectEnv) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

// sourceDirs returns the absolute directories to scan. An empty list
// means the project root itself.
func (e *projectEnv) sourceDirs() []string {
	if len(e.cfg.SourceDirs) == 0 {
		return []string{e.root}
	}
	dirs := make([]string, 0, len(e.cfg.SourceDirs))
	for _, d := range e.cfg.SourceDirs {
		dirs = append(dirs, e.abs(d))
	}
	return dirs
}

// extraFiles returns tracked files that may live outside the source
// dirs: the main file and the bibliography.
func (e *projectEnv) extraFiles() []string {
	return []string{e.abs(e.cfg.MainFile), e.abs(e.cfg.BibFile)}
}

func (e *projectEnv) lockPath() string    { return e.abs(e.cfg.LockFile) }
func (e *projectEnv) historyPath() string { return e.abs(e.cfg.HistoryDB) }

// newRunner constructs the toolchain runner for this project. Validate
// is the caller's job.
func (e *projectEnv) newRunner() *texbuild.Runner {
	return &texbuild.Runner{
		LatexmkPath: e.cfg.LatexmkPath,
		Engine:      e.cfg.Engine,
		BibtexPath:  "bibtex",
		MainFile:    e.cfg.MainFile,
		BuildDir:    e.cfg.BuildDir,
		Passes:      e.cfg.Passes,
		WorkDir:     e.root,
		Verbose:     e.cfg.Verbose,
	}
}

// newArtifact constructs the staging step for the produced PDF.
func (e *projectEnv) newArtifact() *texbuild.Artifact {
	return &texbuild.Artifact{
		BuildDir:  e.abs(e.cfg.BuildDir),
		Name:      e.name,
		OutputDir: e.abs(e.cfg.OutputDir),
	}
}

// sessionRecorder persists finished sessions to the history database and
// the state file. Persistence failures are logged, never fatal.
type sessionRecorder struct {
	ctx     context.Context
	store   *history.Store
	root    string
	printer *ui.Printer
}

func (r *sessionRecorder) Record(res watch.Result) {
	if r.store != nil {
		err := r.store.Record(r.ctx, history.Session{
			Trigger:    res.Trigger,
			Outcome:    string(res.Outcome),
			Fallback:   res.Fallback,
			DurationMs: res.DurationMs,
			LogTail:    res.LogTail,
		})
		if err != nil && r.printer != nil {
			r.printer.Error(fmt.Sprintf("recording session: %v", err))
		}
	}

	state := &project.State{
		Version: 1,
		LastBuild: &project.BuildRecord{
			Trigger:    res.Trigger,
			Outcome:    string(res.Outcome),
			Artifact:   res.Artifact,
			FinishedAt: time.Now().UTC(),
		},
	}
	if err := project.SaveState(r.root, state); err != nil && r.printer != nil {
		r.printer.Error(fmt.Sprintf("saving state: %v", err))
	}
}

// multiRecorder fans one result out to several recorders.
type multiRecorder []watch.Recorder

func (m multiRecorder) Record(res watch.Result) {
	for _, r := range m {
		r.Record(res)
	}
}

// ensureProjectDir creates the .galley directory under the root.
func ensureProjectDir(root string) error {
	return os.MkdirAll(filepath.Join(root, project.StateDirName), 0o755)
}
