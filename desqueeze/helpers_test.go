package desqueeze

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"dng-desqueeze/config"
	"dng-desqueeze/exiftool"
	"github.com/stretchr/testify/require"
)

const sirui = "SIRUI Z 20mm f/1.8S"

// fakeRunner records every exiftool invocation. Writes fail for inputs listed in fail.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (exiftool.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)

	input := filepath.Base(args[len(args)-1])
	if err, ok := f.fail[input]; ok {
		return exiftool.Result{ExitCode: 1, Stderr: err.Error()}, err
	}
	return exiftool.Result{}, nil
}

// fakeReader maps file base names to lens identifiers.
type fakeReader map[string]string

func (f fakeReader) ReadLens(_ context.Context, path string) (string, bool, error) {
	lens, ok := f[filepath.Base(path)]
	return lens, ok, nil
}

type errReader struct{ err error }

func (r errReader) ReadLens(context.Context, string) (string, bool, error) {
	return "", false, r.err
}

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []EventKind
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *recorder) has(kind EventKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

// workspace lays out Lib/exiftool and TEST_IMAGE with the given inputs and returns a
// config pointing at them.
func workspace(t *testing.T, inputs ...string) config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.ExiftoolPath = filepath.Join(root, "Lib", "exiftool-13.34_64", "exiftool(-k).exe")
	cfg.InputDir = filepath.Join(root, "TEST_IMAGE")
	cfg.OutputDir = filepath.Join(root, "TEST_IMAGE", "OUTPUT")

	touch(t, cfg.ExiftoolPath)
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	for _, in := range inputs {
		touch(t, filepath.Join(cfg.InputDir, in))
	}
	return cfg
}

func noChmod(string, os.FileMode) error { return nil }
