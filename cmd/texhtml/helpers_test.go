package main

// Notes:
// - Shared test infrastructure: an injectable Environment and a fake TeX
//   toolchain that writes the artifacts latex and dvipng would produce.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
	runner *fakeTeX
}

// newTestEnv returns an environment where every program is on PATH and the
// toolchain is faked. Job directories go to a per-test temp dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{"TEXHTML_WORK_DIR": t.TempDir()},
		runner: &fakeTeX{},
	}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	te.Environment = &Environment{
		Now:      func() time.Time { return fixed },
		Stdout:   te.stdout,
		Stderr:   te.stderr,
		Getenv:   func(k string) string { return te.vars[k] },
		Environ:  func() []string { return nil },
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		Runner:   te.runner,
	}
	return te
}

// missing makes LookPath fail for the named programs.
func (te *testEnv) missing(names ...string) {
	gone := make(map[string]bool, len(names))
	for _, n := range names {
		gone[n] = true
	}
	te.LookPath = func(name string) (string, error) {
		if gone[name] {
			return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
		}
		return "/usr/bin/" + name, nil
	}
}

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake toolchain
// ---------------------------------------------------------------------------

type fakeTeX struct {
	mu         sync.Mutex
	calls      []string
	versionErr error
}

func (f *fakeTeX) Run(_ context.Context, dir, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if len(args) == 1 && args[0] == "--version" {
		if f.versionErr != nil {
			return "", "", f.versionErr
		}
		return filepath.Base(name) + " 3.14\nmore lines\n", "", nil
	}

	switch name {
	case "latex":
		// The document template writes the metrics side-file during the TeX run.
		if err := os.WriteFile(filepath.Join(dir, "job.dims"), []byte("depth:1.5pt\nheight:8.0pt\n"), 0o600); err != nil {
			return "", "", err
		}
		return "", "", os.WriteFile(filepath.Join(dir, "job.dvi"), []byte("dvi"), 0o600)
	case "dvipng":
		out, err := os.Create(filepath.Join(dir, "job.png"))
		if err != nil {
			return "", "", err
		}
		defer out.Close()
		return "", "", png.Encode(out, image.NewNRGBA(image.Rect(0, 0, 12, 6)))
	}
	return "", "", errors.New("unexpected program " + name)
}

func (f *fakeTeX) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
