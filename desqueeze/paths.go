package desqueeze

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timestampLayout is appended to an occupied output directory, e.g. OUTPUT_20250101_120000.
const timestampLayout = "20060102_150405"

// OutputPath returns outDir/<stem><suffix><ext> for input, keeping input's extension.
func OutputPath(outDir, input, suffix string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(outDir, stem+suffix+ext)
}

// FindInputs lists the files directly inside dir whose extension matches ext, ignoring case.
// A missing directory is reported as no files, the same as an empty one.
func FindInputs(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// ResolveOutputDir picks and creates the directory a run writes into. An absent or empty
// base is used as is. An occupied base is reused when timestamped is false; otherwise a
// sibling named base_<timestamp> is created, with a counter appended if that one is
// occupied too. rotated reports whether a sibling was chosen.
func ResolveOutputDir(base string, timestamped bool, now time.Time) (dir string, rotated bool, err error) {
	base = filepath.Clean(base)

	empty, err := isEmptyDir(base)
	if err != nil {
		return "", false, err
	}

	dir = base
	if !empty && timestamped {
		stamp := now.Format(timestampLayout)
		dir = fmt.Sprintf("%s_%s", base, stamp)
		for n := 2; ; n++ {
			empty, err := isEmptyDir(dir)
			if err != nil {
				return "", false, err
			}
			if empty {
				break
			}
			dir = fmt.Sprintf("%s_%s_%d", base, stamp, n)
		}
		rotated = true
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return dir, rotated, nil
}

// isEmptyDir reports true for a directory without entries or a path that does not exist.
func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("checking output directory %s: %w", path, err)
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking output directory %s: %w", path, err)
	}
	return false, nil
}
