package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifest := "[document]\nmain = \"main.tex\"\n"
	if err := os.WriteFile(filepath.Join(dir, "galley.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.tex"), []byte("\\documentclass{article}\n"), 0o644); err != nil {
		t.Fatalf("writing main file: %v", err)
	}
	return dir
}

// stubLatexmk puts a fake latexmk on PATH so Validate passes.
func stubLatexmk(t *testing.T) {
	t.Helper()
	bin := t.TempDir()
	script := filepath.Join(bin, "latexmk")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("writing stub tool: %v", err)
	}
	t.Setenv("PATH", bin)
}

func TestRootDefault_DelegatesWithoutContext(t *testing.T) {
	dir := writeProject(t)
	t.Chdir(dir)
	// Empty PATH: startup must fail on the toolchain check, not before.
	t.Setenv("PATH", t.TempDir())

	rootCmd.SetContext(nil)
	watchCmd.SetContext(nil)

	err := runRootDefault(rootCmd, nil)
	if err == nil {
		t.Fatal("want toolchain error from the delegated watch command")
	}
	if !strings.Contains(err.Error(), "latexmk") {
		t.Errorf("err = %v, want the toolchain validation failure", err)
	}
}

func TestRootDefault_PropagatesContextToWatch(t *testing.T) {
	dir := writeProject(t)
	t.Chdir(dir)
	stubLatexmk(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rootCmd.SetContext(ctx)

	// With the parent already cancelled the watcher must start up, run
	// zero cycles, and shut down cleanly.
	if err := runRootDefault(rootCmd, nil); err != nil {
		t.Fatalf("runRootDefault: %v", err)
	}

	if watchCmd.Context() == nil {
		t.Error("watch command context was not seeded from the root command")
	}
}
