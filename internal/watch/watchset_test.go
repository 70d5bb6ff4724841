package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestScan_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.tex"), `\documentclass{article}`)
	writeFile(t, filepath.Join(root, "chapters", "one.tex"), "one")
	writeFile(t, filepath.Join(root, "chapters", "notes.md"), "notes")
	writeFile(t, filepath.Join(root, "build", "main.log"), "log")

	set, err := Scan([]string{root}, ".tex")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if set.Len() != 2 {
		t.Errorf("Len = %d, want 2; paths: %v", set.Len(), set.Paths())
	}
	if !set.Contains(filepath.Join(root, "chapters", "one.tex")) {
		t.Error("nested .tex file not tracked")
	}
	if set.Contains(filepath.Join(root, "chapters", "notes.md")) {
		t.Error(".md file tracked despite extension filter")
	}
}

func TestScan_IncludesExistingExtras(t *testing.T) {
	root := t.TempDir()
	bib := filepath.Join(root, "references.bib")
	writeFile(t, bib, "@book{knuth1984}")

	set, err := Scan([]string{root}, ".tex", bib, filepath.Join(root, "missing.bib"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if !set.Contains(bib) {
		t.Error("existing bibliography not tracked")
	}
	if set.Contains(filepath.Join(root, "missing.bib")) {
		t.Error("missing extra file tracked")
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan([]string{filepath.Join(t.TempDir(), "nope")}, ".tex")
	if !errors.Is(err, ErrMissingRoot) {
		t.Errorf("Scan error = %v, want ErrMissingRoot", err)
	}
}

func TestScan_EmptyRootIsFine(t *testing.T) {
	set, err := Scan([]string{t.TempDir()}, ".tex")
	if err != nil {
		t.Fatalf("Scan on empty dir: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len = %d, want 0", set.Len())
	}
}

func TestFirstDivergent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.tex")
	writeFile(t, path, "v1")

	set, err := Scan([]string{root}, ".tex")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := set.FirstDivergent(); got != "" {
		t.Errorf("FirstDivergent on fresh scan = %q, want empty", got)
	}

	future := time.Now().Add(10 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if got := set.FirstDivergent(); got != path {
		t.Errorf("FirstDivergent = %q, want %q", got, path)
	}

	set.Refresh()
	if got := set.FirstDivergent(); got != "" {
		t.Errorf("FirstDivergent after Refresh = %q, want empty", got)
	}
	if recorded, _ := set.ModTime(path); !recorded.Equal(future) {
		t.Errorf("recorded modtime = %v, want %v", recorded, future)
	}
}

func TestVanishedFileNeverDiverges(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.tex")
	writeFile(t, path, "v1")

	set, err := Scan([]string{root}, ".tex")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if got := set.FirstDivergent(); got != "" {
		t.Errorf("FirstDivergent after removal = %q, want empty", got)
	}
	if !set.Contains(path) {
		t.Error("stale entry dropped; vanished paths should be retained")
	}

	// Refresh must not drop the stale entry either.
	set.Refresh()
	if !set.Contains(path) {
		t.Error("Refresh dropped the stale entry")
	}
}
