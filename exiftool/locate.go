package exiftool

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned when the configured exiftool binary does not exist.
var ErrNotFound = errors.New("exiftool not found")

// Locate checks that path names an existing file. There is no PATH lookup: the tool ships
// its own exiftool build next to the footage folder.
func Locate(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("checking exiftool at %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w at %s: path is a directory", ErrNotFound, path)
	}
	return path, nil
}
