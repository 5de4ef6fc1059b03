// Package testutil provides sandboxed filesystem environments, config
// save/restore helpers, and golden file assertions for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a per-test filesystem sandbox. Every path it hands out is
// checked to stay under one temporary root, and the root is removed when
// the test finishes.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a sandbox rooted in a fresh temporary directory.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, rootDir: t.TempDir()}
}

// RootDir returns the sandbox root.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path resolves elem relative to the sandbox root, failing the test if the
// result would escape it.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	resolved := filepath.Clean(filepath.Join(e.rootDir, filepath.Join(elem...)))
	if !e.contains(resolved) {
		e.t.Fatalf("path %q escapes test sandbox %q", resolved, e.rootDir)
	}
	return resolved
}

func (e *TestEnv) contains(path string) bool {
	root := filepath.Clean(e.rootDir)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// WriteFile writes content to a sandbox path, creating parent directories.
func (e *TestEnv) WriteFile(path string, content []byte) {
	e.t.Helper()

	target := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		e.t.Fatalf("failed to create directory for %q: %v", target, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		e.t.Fatalf("failed to write %q: %v", target, err)
	}
}

// WriteFileString writes a string to a sandbox path.
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()
	e.WriteFile(path, []byte(content))
}

// ReadFile reads a sandbox file, failing the test on error.
func (e *TestEnv) ReadFile(path string) []byte {
	e.t.Helper()

	target := e.Path(path)
	content, err := os.ReadFile(target)
	if err != nil {
		e.t.Fatalf("failed to read %q: %v", target, err)
	}
	return content
}

// ReadFileString reads a sandbox file as a string.
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()
	return string(e.ReadFile(path))
}

// MkdirAll creates a directory tree inside the sandbox.
func (e *TestEnv) MkdirAll(path string) {
	e.t.Helper()

	target := e.Path(path)
	if err := os.MkdirAll(target, 0o755); err != nil {
		e.t.Fatalf("failed to create directory %q: %v", target, err)
	}
}

// FileExists reports whether a sandbox path exists.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()
	_, err := os.Stat(e.Path(path))
	return err == nil
}

// RequireFileExists fails the test unless the sandbox path exists.
func (e *TestEnv) RequireFileExists(path string) {
	e.t.Helper()
	if !e.FileExists(path) {
		e.t.Fatalf("expected file %q to exist", e.Path(path))
	}
}

// RequireFileNotExists fails the test if the sandbox path exists.
func (e *TestEnv) RequireFileNotExists(path string) {
	e.t.Helper()
	if e.FileExists(path) {
		e.t.Fatalf("expected file %q to not exist", e.Path(path))
	}
}

// AssertFileContains checks that a sandbox file contains the substring.
func (e *TestEnv) AssertFileContains(path, expected string) {
	e.t.Helper()
	if content := e.ReadFileString(path); !strings.Contains(content, expected) {
		e.t.Errorf("file %q does not contain %q:\n%s", path, expected, content)
	}
}

// AssertFileEquals checks that a sandbox file holds exactly the expected
// content.
func (e *TestEnv) AssertFileEquals(path, expected string) {
	e.t.Helper()
	if content := e.ReadFileString(path); content != expected {
		e.t.Errorf("file %q content mismatch:\ngot:\n%s\n\nwant:\n%s", path, content, expected)
	}
}
