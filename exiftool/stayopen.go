package exiftool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goexiftool "github.com/barasher/go-exiftool"
)

// StayOpen reads tags through a single long-lived "exiftool -stay_open" process instead of
// spawning one per file. It needs a regular exiftool build; the "(-k)" variant pauses after
// every command.
type StayOpen struct {
	Tag string

	mu sync.Mutex
	et *goexiftool.Exiftool
}

// NewStayOpen starts exiftool at path in stay-open mode.
func NewStayOpen(path, tag string) (*StayOpen, error) {
	et, err := goexiftool.NewExiftool(goexiftool.SetExiftoolBinaryPath(path))
	if err != nil {
		return nil, fmt.Errorf("starting exiftool in stay-open mode: %w", err)
	}
	return &StayOpen{Tag: tag, et: et}, nil
}

// ReadLens returns the tag value for path. The process is shared, so calls are serialized.
func (s *StayOpen) ReadLens(ctx context.Context, path string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fms := s.et.ExtractMetadata(path)
	if len(fms) == 0 {
		return "", false, fmt.Errorf("no metadata returned for %s", path)
	}
	if fms[0].Err != nil {
		return "", false, fms[0].Err
	}

	value, err := fms[0].GetString(s.Tag)
	if errors.Is(err, goexiftool.ErrKeyNotFound) || value == "" {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Close stops the exiftool process.
func (s *StayOpen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.et.Close()
}
