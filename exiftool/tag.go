package exiftool

import (
	"context"
	"errors"
	"strings"
)

// ParseTagLine extracts the value from exiftool's default "Label   : value" output.
// The value is whatever follows the last colon, so labels must not be matched on values
// that themselves contain a colon.
func ParseTagLine(output, label string) (string, bool) {
	output = strings.TrimSpace(output)
	if !strings.Contains(output, label) {
		return "", false
	}

	parts := strings.Split(output, ":")
	value := strings.TrimSpace(parts[len(parts)-1])
	if value == "" {
		return "", false
	}
	return value, true
}

// TagReader reads a single tag by running "exiftool -<Tag> <file>".
type TagReader struct {
	Runner Runner
	Tag    string
	Label  string
}

// NewTagReader returns a reader for tag, whose human readable name exiftool prints as label.
func NewTagReader(r Runner, tag, label string) *TagReader {
	return &TagReader{Runner: r, Tag: tag, Label: label}
}

// ReadLens returns the tag value for path. A non-zero exit is not an error here: exiftool
// still prints whatever it could read, and a missing tag simply yields ok == false.
func (t *TagReader) ReadLens(ctx context.Context, path string) (string, bool, error) {
	res, err := t.Runner.Run(ctx, "-"+t.Tag, path)
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", false, err
	}

	value, ok := ParseTagLine(res.Stdout, t.Label)
	return value, ok, nil
}
