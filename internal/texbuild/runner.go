// Package texbuild invokes the external typesetting toolchain. The
// Runner prefers latexmk; when latexmk is not installed it falls back to
// driving the configured engine directly with a bibliography pass, the
// classic multi-pass sequence.
package texbuild

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// maxLogTail bounds the captured output kept for history and error
// reporting.
const maxLogTail = 4096

// Runner drives the external typesetting toolchain for one document.
type Runner struct {
	LatexmkPath string // latexmk binary; may be absent from PATH
	Engine      string // raw engine used by the fallback sequence (pdflatex, xelatex, ...)
	BibtexPath  string // bibliography processor for the raw sequence; defaults to bibtex
	MainFile    string // entry point, relative to WorkDir
	BuildDir    string // intermediate output directory, relative to WorkDir
	Passes      int    // engine passes in the raw sequence
	WorkDir     string
	Verbose     bool

	useLatexmk bool
	lastOutput []byte
}

// Validate checks that a usable toolchain is installed and decides the
// invocation strategy. It must be called before Build.
func (r *Runner) Validate() error {
	if _, err := exec.LookPath(r.LatexmkPath); err == nil {
		r.useLatexmk = true
		return nil
	}
	if _, err := exec.LookPath(r.Engine); err == nil {
		r.useLatexmk = false
		return nil
	}
	return fmt.Errorf("no typesetting toolchain found: neither %q nor %q is on PATH", r.LatexmkPath, r.Engine)
}

// Build runs one complete compilation of the document. The returned error
// carries the tail of the tool output.
func (r *Runner) Build(ctx context.Context) error {
	if err := os.MkdirAll(r.buildDirPath(), 0o755); err != nil {
		return fmt.Errorf("creating build dir: %w", err)
	}
	if r.useLatexmk {
		return r.run(ctx, r.LatexmkPath, r.latexmkArgs()...)
	}
	return r.rawSequence(ctx)
}

// CleanBuild clears the intermediate build directory and runs a full
// build from scratch. It is the recovery path after a failed Build: stale
// aux/toc/bbl files are a common cause of persistent compile failures.
func (r *Runner) CleanBuild(ctx context.Context) error {
	if err := os.RemoveAll(r.buildDirPath()); err != nil {
		return fmt.Errorf("clearing build dir: %w", err)
	}
	return r.Build(ctx)
}

// Clean removes the intermediate build directory without rebuilding.
func (r *Runner) Clean() error {
	if err := os.RemoveAll(r.buildDirPath()); err != nil {
		return fmt.Errorf("clearing build dir: %w", err)
	}
	return nil
}

// LogTail returns the tail of the most recent tool output, for history
// records and failure reporting.
func (r *Runner) LogTail() string {
	out := r.lastOutput
	if len(out) > maxLogTail {
		out = out[len(out)-maxLogTail:]
	}
	return string(out)
}

// latexmkArgs constructs the latexmk invocation.
func (r *Runner) latexmkArgs() []string {
	return []string{
		"-pdf",
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-outdir=" + r.BuildDir,
		r.MainFile,
	}
}

// rawSequence emulates latexmk's fixed-point loop with a bounded pass
// count: engine, bibliography processor, then the remaining engine passes
// to settle references.
func (r *Runner) rawSequence(ctx context.Context) error {
	passes := r.Passes
	if passes < 1 {
		passes = 2
	}

	engineArgs := []string{
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory=" + r.BuildDir,
		r.MainFile,
	}

	if err := r.run(ctx, r.Engine, engineArgs...); err != nil {
		return err
	}

	// Bibliography pass only when an aux file with citations appeared.
	if r.needsBibliography() {
		bibtex := r.BibtexPath
		if bibtex == "" {
			bibtex = "bibtex"
		}
		auxBase := strings.TrimSuffix(filepath.Base(r.MainFile), filepath.Ext(r.MainFile))
		// bibtex resolves the aux file relative to its working directory.
		if err := r.runIn(ctx, r.buildDirPath(), bibtex, auxBase); err != nil {
			return err
		}
	}

	for i := 1; i < passes; i++ {
		if err := r.run(ctx, r.Engine, engineArgs...); err != nil {
			return err
		}
	}
	return nil
}

// needsBibliography reports whether the aux file references citations.
func (r *Runner) needsBibliography() bool {
	auxName := strings.TrimSuffix(filepath.Base(r.MainFile), filepath.Ext(r.MainFile)) + ".aux"
	data, err := os.ReadFile(filepath.Join(r.buildDirPath(), auxName))
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte(`\citation`)) || bytes.Contains(data, []byte(`\bibdata`))
}

func (r *Runner) buildDirPath() string {
	if filepath.IsAbs(r.BuildDir) {
		return r.BuildDir
	}
	return filepath.Join(r.WorkDir, r.BuildDir)
}

// run executes one external tool in WorkDir with combined output capture.
func (r *Runner) run(ctx context.Context, name string, args ...string) error {
	return r.runIn(ctx, r.WorkDir, name, args...)
}

func (r *Runner) runIn(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if r.Verbose {
		fmt.Fprintf(os.Stderr, "[texbuild] running: %s %s\n", name, strings.Join(args, " "))
	}

	err := cmd.Run()
	r.lastOutput = out.Bytes()
	if err != nil {
		return fmt.Errorf("%s failed: %w\noutput: %s", name, err, r.LogTail())
	}
	return nil
}
