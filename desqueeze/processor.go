package desqueeze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dng-desqueeze/config"
	"dng-desqueeze/exiftool"
	"dng-desqueeze/util/log"
)

// ErrOutputIsInput is returned when the computed output path would overwrite the input.
var ErrOutputIsInput = errors.New("output path equals input path")

// Outcome describes one processed file.
type Outcome struct {
	Input      string
	Output     string
	Lens       string
	Desqueezed bool
	Widened    bool
}

// BuildArgs returns the exiftool arguments that copy input to output, writing
// DefaultScale when a policy applies. -F lets exiftool fix up broken makernote offsets
// instead of refusing to write.
func BuildArgs(input, output string, policy *config.LensPolicy) []string {
	args := []string{"-F"}
	if policy != nil {
		args = append(args, "-DefaultScale="+policy.Scale)
	}
	return append(args, "-o", output, input)
}

// Processor handles one file at a time: read the lens, pick the branch, run exiftool.
type Processor struct {
	Runner           exiftool.Runner
	Reader           LensReader
	Policies         Policies
	WidenPermissions bool
	Reporter         Reporter

	// Chmod defaults to os.Chmod.
	Chmod func(name string, mode os.FileMode) error
}

func (p *Processor) report(e Event) {
	if p.Reporter != nil {
		p.Reporter.Report(e)
	}
}

// Process writes output from input. The lens lookup never fails the file: a reader error
// becomes a warning and the file is copied unchanged.
func (p *Processor) Process(ctx context.Context, input, output string) (Outcome, error) {
	out := Outcome{Input: input, Output: output}
	name := filepath.Base(input)

	if filepath.Clean(input) == filepath.Clean(output) {
		return out, fmt.Errorf("%s: %w", input, ErrOutputIsInput)
	}

	lens, ok, err := p.Reader.ReadLens(ctx, input)
	if err != nil {
		p.report(Event{Kind: EventWarning, File: name, Message: "Could not read lens info for " + name, Err: err})
		lens, ok = "", false
	}

	p.report(Event{Kind: EventImport, File: name, Path: input})
	if ok {
		out.Lens = lens
		p.report(Event{Kind: EventLens, File: name, Lens: lens})
	}

	var policy *config.LensPolicy
	if match, found := p.Policies.Match(lens); ok && found {
		policy = &match
		out.Desqueezed = true
		p.report(Event{Kind: EventDesqueeze, File: name, Lens: lens, Scale: match.Scale})
	} else {
		p.report(Event{Kind: EventCopy, File: name, Lens: lens})
	}

	if _, err := p.Runner.Run(ctx, BuildArgs(input, output, policy)...); err != nil {
		return out, err
	}

	saved := Event{Kind: EventSaved, File: filepath.Base(output), Path: output}
	if p.WidenPermissions {
		chmod := p.Chmod
		if chmod == nil {
			chmod = os.Chmod
		}
		if err := chmod(output, 0666); err != nil {
			log.Printf("chmod %s: %v", output, err)
			p.report(Event{Kind: EventWarning, File: saved.File, Message: "Could not set permissions for " + saved.File, Err: err})
			saved.Err = err
		} else {
			out.Widened = true
			saved.Widened = true
		}
	}
	p.report(saved)

	return out, nil
}
