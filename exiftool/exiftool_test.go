package exiftool

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagLine(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		wantOK bool
	}{
		{"typical", "Lens Model                      : SIRUI Z 20mm f/1.8S\r\n", "SIRUI Z 20mm f/1.8S", true},
		{"other lens", "Lens Model : NIKKOR Z 24-70mm f/4 S\n", "NIKKOR Z 24-70mm f/4 S", true},
		{"empty output", "", "", false},
		{"label missing", "Warning: [minor] Unrecognized tag\n", "", false},
		{"empty value", "Lens Model                      :   \n", "", false},
		{"takes text after last colon", "Lens Model : Foo: Bar\n", "Bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTagLine(tt.output, "Lens Model")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "exiftool(-k).exe")
	require.NoError(t, os.WriteFile(bin, []byte("stub"), 0755))

	got, err := Locate(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = Locate(filepath.Join(dir, "missing.exe"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Locate(dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeRunner struct {
	res  Result
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (Result, error) {
	f.args = args
	return f.res, f.err
}

func TestTagReader(t *testing.T) {
	t.Run("reads value", func(t *testing.T) {
		r := &fakeRunner{res: Result{Stdout: "Lens Model : SIRUI Z 20mm f/1.8S\n"}}
		lens, ok, err := NewTagReader(r, "LensModel", "Lens Model").ReadLens(context.Background(), "a.dng")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "SIRUI Z 20mm f/1.8S", lens)
		assert.Equal(t, []string{"-LensModel", "a.dng"}, r.args)
	})

	t.Run("non-zero exit still parses stdout", func(t *testing.T) {
		r := &fakeRunner{
			res: Result{Stdout: "", Stderr: "Error: File not found", ExitCode: 1},
			err: &ExitError{Code: 1, Stderr: "Error: File not found"},
		}
		_, ok, err := NewTagReader(r, "LensModel", "Lens Model").ReadLens(context.Background(), "a.dng")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("start failure is returned", func(t *testing.T) {
		r := &fakeRunner{err: errors.New("exec format error")}
		_, ok, err := NewTagReader(r, "LensModel", "Lens Model").ReadLens(context.Background(), "a.dng")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "exiftool exited with status 2", (&ExitError{Code: 2}).Error())
	assert.Equal(t, "exiftool exited with status 1: Error: bad", (&ExitError{Code: 1, Stderr: "Error: bad\n"}).Error())
}

// writeScript drops a POSIX shell script standing in for exiftool.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "exiftool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestCmdRun(t *testing.T) {
	script := writeScript(t, `echo "args: $*"
if read line; then echo "stdin: enter"; else echo "stdin: eof"; fi
`)

	res, err := NewCmd(script, true).Run(context.Background(), "-LensModel", "clip.dng")
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "args: -LensModel clip.dng")
	assert.Contains(t, res.Stdout, "stdin: enter")
	assert.Equal(t, 0, res.ExitCode)

	res, err = NewCmd(script, false).Run(context.Background(), "-ver")
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "stdin: eof")
}

func TestCmdRunExitError(t *testing.T) {
	script := writeScript(t, `echo "Error: Nothing to write" >&2
exit 1
`)

	res, err := NewCmd(script, false).Run(context.Background(), "-F", "-o", "out.dng", "in.dng")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "Nothing to write")
	assert.Equal(t, 1, res.ExitCode)
}

func TestCmdRunMissingBinary(t *testing.T) {
	_, err := NewCmd(filepath.Join(t.TempDir(), "nope"), false).Run(context.Background(), "-ver")
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestStayOpen(t *testing.T) {
	bin, err := exec.LookPath("exiftool")
	if err != nil {
		t.Skip("exiftool not installed")
	}

	so, err := NewStayOpen(bin, "LensModel")
	require.NoError(t, err)
	defer so.Close()

	plain := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("hello"), 0644))

	// Whether exiftool reports an error for the file or not, there is no lens in it.
	_, ok, _ := so.ReadLens(context.Background(), plain)
	assert.False(t, ok)
}

func TestVersion(t *testing.T) {
	v, err := Version(context.Background(), &fakeRunner{res: Result{Stdout: "13.34\n-- press ENTER --\n"}})
	require.NoError(t, err)
	assert.Equal(t, "13.34", v)

	_, err = Version(context.Background(), &fakeRunner{res: Result{Stdout: "\n"}})
	assert.Error(t, err)
}
