package desqueeze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dng-desqueeze/config"
	"dng-desqueeze/exiftool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicies() Policies {
	return Policies(config.Default().Lenses)
}

func TestPoliciesMatch(t *testing.T) {
	p := defaultPolicies()

	got, ok := p.Match(sirui)
	assert.True(t, ok)
	assert.Equal(t, "1.33 1.0", got.Scale)

	for _, lens := range []string{"", "sirui z 20mm f/1.8s", sirui + " ", "SIRUI Z 24mm f/1.4S"} {
		_, ok := p.Match(lens)
		assert.False(t, ok, "lens %q", lens)
	}
}

func TestBuildArgs(t *testing.T) {
	policy := config.LensPolicy{Name: sirui, Scale: "1.33 1.0"}

	assert.Equal(t,
		[]string{"-F", "-DefaultScale=1.33 1.0", "-o", "out/clip001_stretched.dng", "clip001.dng"},
		BuildArgs("clip001.dng", "out/clip001_stretched.dng", &policy))
	assert.Equal(t,
		[]string{"-F", "-o", "out/clip002_stretched.dng", "clip002.dng"},
		BuildArgs("clip002.dng", "out/clip002_stretched.dng", nil))
}

func hasScaleArg(args []string) bool {
	for _, a := range args {
		if len(a) > len("-DefaultScale=") && a[:len("-DefaultScale=")] == "-DefaultScale=" {
			return true
		}
	}
	return false
}

func TestProcessorBranches(t *testing.T) {
	tests := []struct {
		name       string
		reader     LensReader
		wantScale  bool
		wantEvents []EventKind
	}{
		{
			name:       "anamorphic lens",
			reader:     fakeReader{"clip001.dng": sirui},
			wantScale:  true,
			wantEvents: []EventKind{EventImport, EventLens, EventDesqueeze, EventSaved},
		},
		{
			name:       "other lens",
			reader:     fakeReader{"clip001.dng": "NIKKOR Z 24-70mm f/4 S"},
			wantEvents: []EventKind{EventImport, EventLens, EventCopy, EventSaved},
		},
		{
			name:       "no lens tag",
			reader:     fakeReader{},
			wantEvents: []EventKind{EventImport, EventCopy, EventSaved},
		},
		{
			name:       "reader failure downgraded",
			reader:     errReader{errors.New("exec format error")},
			wantEvents: []EventKind{EventWarning, EventImport, EventCopy, EventSaved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			rec := &recorder{}
			p := &Processor{
				Runner:           runner,
				Reader:           tt.reader,
				Policies:         defaultPolicies(),
				WidenPermissions: true,
				Reporter:         rec,
				Chmod:            noChmod,
			}

			out, err := p.Process(context.Background(), "in/clip001.dng", "out/clip001_stretched.dng")
			require.NoError(t, err)
			require.Len(t, runner.calls, 1)
			assert.Equal(t, tt.wantScale, hasScaleArg(runner.calls[0]))
			assert.Equal(t, tt.wantScale, out.Desqueezed)
			assert.True(t, out.Widened)
			assert.Equal(t, tt.wantEvents, rec.kinds())
		})
	}
}

func TestProcessorExitError(t *testing.T) {
	exitErr := &exiftool.ExitError{Code: 1, Stderr: "Error: File not found - clip001.dng"}
	runner := &fakeRunner{fail: map[string]error{"clip001.dng": exitErr}}
	rec := &recorder{}
	p := &Processor{Runner: runner, Reader: fakeReader{}, Reporter: rec, WidenPermissions: true, Chmod: noChmod}

	_, err := p.Process(context.Background(), "in/clip001.dng", "out/clip001_stretched.dng")
	var got *exiftool.ExitError
	require.ErrorAs(t, err, &got)
	assert.Contains(t, got.Stderr, "File not found")
	assert.False(t, rec.has(EventSaved))
}

func TestProcessorChmodFailureStillSucceeds(t *testing.T) {
	rec := &recorder{}
	p := &Processor{
		Runner:           &fakeRunner{},
		Reader:           fakeReader{},
		Reporter:         rec,
		WidenPermissions: true,
		Chmod:            func(string, os.FileMode) error { return os.ErrPermission },
	}

	out, err := p.Process(context.Background(), "in/clip001.dng", "out/clip001_stretched.dng")
	require.NoError(t, err)
	assert.False(t, out.Widened)
	assert.Equal(t, []EventKind{EventImport, EventCopy, EventWarning, EventSaved}, rec.kinds())
	assert.Contains(t, FormatEvent(rec.events[3]), "无法设为可读写")
}

func TestProcessorWidensRealFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "clip001_stretched.dng")
	touch(t, output)
	require.NoError(t, os.Chmod(output, 0600))

	p := &Processor{Runner: &fakeRunner{}, Reader: fakeReader{}, WidenPermissions: true}
	out, err := p.Process(context.Background(), filepath.Join(dir, "clip001.dng"), output)
	require.NoError(t, err)
	assert.True(t, out.Widened)
}

func TestProcessorRefusesToOverwriteInput(t *testing.T) {
	runner := &fakeRunner{}
	p := &Processor{Runner: runner, Reader: fakeReader{}}

	_, err := p.Process(context.Background(), "in/clip001.dng", "in/./clip001.dng")
	assert.ErrorIs(t, err, ErrOutputIsInput)
	assert.Empty(t, runner.calls)
}

type stubReader struct {
	lens string
	ok   bool
	err  error
}

func (s stubReader) ReadLens(context.Context, string) (string, bool, error) {
	return s.lens, s.ok, s.err
}

func TestFallbackReader(t *testing.T) {
	ctx := context.Background()

	lens, ok, err := FallbackReader{Primary: stubReader{lens: sirui, ok: true}, Fallback: stubReader{lens: "other", ok: true}}.ReadLens(ctx, "a.dng")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sirui, lens)

	lens, ok, err = FallbackReader{Primary: stubReader{}, Fallback: stubReader{lens: sirui, ok: true}}.ReadLens(ctx, "a.dng")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sirui, lens)

	boom := errors.New("boom")
	_, ok, err = FallbackReader{Primary: stubReader{err: boom}, Fallback: stubReader{err: errors.New("no exif")}}.ReadLens(ctx, "a.dng")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestNativeLensReaderRejectsNonTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip001.dng")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a tiff file"), 0644))

	_, ok, err := NewNativeLensReader("LensModel").ReadLens(context.Background(), path)
	assert.Error(t, err)
	assert.False(t, ok)
}
