package texbuild

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Artifact locates the PDF a successful build leaves in the build
// directory and stages it into the output directory.
type Artifact struct {
	BuildDir  string // where the toolchain writes intermediates
	Name      string // document name; the PDF is <Name>.pdf
	OutputDir string // final destination
}

// Stage verifies the artifact exists and copies it to the output
// directory. It returns the staged path. A missing artifact after a
// reported build success is an error the caller logs but survives.
func (a *Artifact) Stage() (string, error) {
	src := filepath.Join(a.BuildDir, a.Name+".pdf")
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("artifact %s not found: %w", src, err)
	}

	if err := os.MkdirAll(a.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	dst := filepath.Join(a.OutputDir, a.Name+".pdf")
	if sameFile(src, dst) {
		return dst, nil
	}
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("staging artifact: %w", err)
	}
	return dst, nil
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

// copyFile copies src over dst via a temp file + rename so a reader never
// sees a half-written PDF.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".galley-stage-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
