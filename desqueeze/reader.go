package desqueeze

import (
	"context"
	"fmt"
	"os"
	"strings"

	"dng-desqueeze/util/log"
	"github.com/rwcarlsen/goexif/exif"
)

// LensReader looks up the lens identifier of one file. ok is false when the file carries
// no such tag.
type LensReader interface {
	ReadLens(ctx context.Context, path string) (lens string, ok bool, err error)
}

// NativeLensReader decodes the EXIF directories of a DNG in process. DNG is TIFF based, so
// the EXIF sub-IFD that holds LensModel is reachable without exiftool.
type NativeLensReader struct {
	Field exif.FieldName
}

// NewNativeLensReader returns a reader for the EXIF field named tag, e.g. "LensModel".
func NewNativeLensReader(tag string) *NativeLensReader {
	return &NativeLensReader{Field: exif.FieldName(tag)}
}

func (r *NativeLensReader) ReadLens(ctx context.Context, path string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return "", false, fmt.Errorf("decoding exif of %s: %w", path, err)
	}

	tag, err := x.Get(r.Field)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return "", false, nil
		}
		return "", false, err
	}

	value, err := tag.StringVal()
	if err != nil {
		return "", false, err
	}
	value = strings.TrimSpace(strings.TrimRight(value, "\x00"))
	return value, value != "", nil
}

// FallbackReader asks Fallback only when Primary finds nothing or fails.
type FallbackReader struct {
	Primary  LensReader
	Fallback LensReader
}

func (r FallbackReader) ReadLens(ctx context.Context, path string) (string, bool, error) {
	lens, ok, err := r.Primary.ReadLens(ctx, path)
	if ok && err == nil {
		return lens, true, nil
	}

	alt, altOK, altErr := r.Fallback.ReadLens(ctx, path)
	if altOK {
		log.Debugf("lens for %s read by fallback reader: %q", path, alt)
		return alt, true, nil
	}
	if altErr != nil {
		log.Debugf("fallback lens read for %s: %v", path, altErr)
	}
	return "", false, err
}
