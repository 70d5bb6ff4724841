package texbuild

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStage_CopiesArtifact(t *testing.T) {
	buildDir := t.TempDir()
	outDir := t.TempDir()

	pdf := []byte("%PDF-1.7 fake")
	if err := os.WriteFile(filepath.Join(buildDir, "thesis.pdf"), pdf, 0o644); err != nil {
		t.Fatalf("writing pdf: %v", err)
	}

	a := &Artifact{BuildDir: buildDir, Name: "thesis", OutputDir: outDir}
	staged, err := a.Stage()
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	want := filepath.Join(outDir, "thesis.pdf")
	if staged != want {
		t.Errorf("staged path = %q, want %q", staged, want)
	}
	got, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("reading staged artifact: %v", err)
	}
	if string(got) != string(pdf) {
		t.Errorf("staged content = %q, want %q", got, pdf)
	}
}

func TestStage_MissingArtifact(t *testing.T) {
	a := &Artifact{BuildDir: t.TempDir(), Name: "thesis", OutputDir: t.TempDir()}
	if _, err := a.Stage(); err == nil {
		t.Error("Stage succeeded with no artifact present")
	}
}

func TestStage_SamePathNoCopy(t *testing.T) {
	dir := t.TempDir()
	pdf := []byte("%PDF-1.7 in place")
	if err := os.WriteFile(filepath.Join(dir, "notes.pdf"), pdf, 0o644); err != nil {
		t.Fatalf("writing pdf: %v", err)
	}

	a := &Artifact{BuildDir: dir, Name: "notes", OutputDir: dir}
	staged, err := a.Stage()
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	got, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(got) != string(pdf) {
		t.Errorf("artifact content changed: %q", got)
	}
}
