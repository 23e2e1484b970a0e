package desqueeze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dng-desqueeze/config"
	"dng-desqueeze/exiftool"
	"dng-desqueeze/util/log"
)

var (
	// ErrNoInputs is returned when the input directory holds no matching files.
	ErrNoInputs = errors.New("no input files found")
	// ErrBatchAborted wraps the error of the file that stopped a run.
	ErrBatchAborted = errors.New("batch aborted")
)

// Summary tallies a run. Succeeded+Failed never exceeds Found and Failed is at most 1,
// since the first failure ends the run.
type Summary struct {
	Found     int
	Succeeded int
	Failed    int
	OutputDir string
}

// Batch runs the whole pipeline for one configuration.
type Batch struct {
	Config   config.Config
	Reporter Reporter

	// Runner replaces the exiftool process runner. Nil runs the located binary.
	Runner exiftool.Runner
	// Reader replaces the lens reader built from Config.
	Reader LensReader
	// Now defaults to time.Now.
	Now func() time.Time
	// Chmod defaults to os.Chmod.
	Chmod func(name string, mode os.FileMode) error
}

func (b *Batch) reporter() Reporter {
	if b.Reporter == nil {
		return discard{}
	}
	return b.Reporter
}

func (b *Batch) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// setup locates exiftool and prepares the runner and lens reader. The returned closer
// must be called once the run is over.
func (b *Batch) setup() (exiftool.Runner, LensReader, func(), error) {
	path, err := exiftool.Locate(b.Config.ExiftoolPath)
	if err != nil {
		return nil, nil, nil, err
	}
	b.reporter().Report(Event{Kind: EventTool, Path: path})

	runner := b.Runner
	if runner == nil {
		runner = exiftool.NewCmd(path, b.Config.PressEnter)
	}

	closer := func() {}
	reader := b.Reader
	if reader == nil {
		switch b.Config.Reader {
		case config.ReaderStayOpen:
			so, err := exiftool.NewStayOpen(path, b.Config.LensTag)
			if err != nil {
				return nil, nil, nil, err
			}
			reader = so
			closer = func() {
				if err := so.Close(); err != nil {
					log.Printf("closing exiftool: %v", err)
				}
			}
		default:
			reader = exiftool.NewTagReader(runner, b.Config.LensTag, b.Config.LensLabel)
		}

		if b.Config.NativeFallback {
			reader = FallbackReader{Primary: reader, Fallback: NewNativeLensReader(b.Config.LensTag)}
		}
	}
	return runner, reader, closer, nil
}

// Run processes every input file in order and stops at the first failure. The summary is
// valid even when an error is returned.
func (b *Batch) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	rep := b.reporter()

	runner, reader, closeReader, err := b.setup()
	if err != nil {
		return sum, err
	}
	defer closeReader()

	outDir, rotated, err := ResolveOutputDir(b.Config.OutputDir, b.Config.TimestampedOutput, b.now())
	if err != nil {
		return sum, err
	}
	sum.OutputDir = outDir
	if rotated {
		rep.Report(Event{Kind: EventOutputRotated, File: filepath.Base(outDir), Path: outDir})
	}
	rep.Report(Event{Kind: EventOutputDir, Path: outDir})

	files, err := FindInputs(b.Config.InputDir, b.Config.Extension)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("%w: no *%s files in %s", ErrNoInputs, b.Config.Extension, b.Config.InputDir)
	}
	sum.Found = len(files)
	rep.Report(Event{Kind: EventFound, Total: len(files)})

	proc := &Processor{
		Runner:           runner,
		Reader:           reader,
		Policies:         Policies(b.Config.Lenses),
		WidenPermissions: b.Config.WidenPermissions,
		Reporter:         rep,
		Chmod:            b.Chmod,
	}

	for i, input := range files {
		name := filepath.Base(input)
		if err := ctx.Err(); err != nil {
			rep.Report(Event{Kind: EventCancelled, Index: i, Total: len(files), File: name})
			return sum, err
		}
		rep.Report(Event{Kind: EventProgress, Index: i, Total: len(files), File: name, Path: input})

		output := OutputPath(outDir, input, b.Config.Suffix)
		if _, err := proc.Process(ctx, input, output); err != nil {
			if ctx.Err() != nil {
				rep.Report(Event{Kind: EventCancelled, Index: i, Total: len(files), File: name})
				return sum, ctx.Err()
			}
			sum.Failed++
			log.Printf("processing %s: %v", input, err)
			rep.Report(Event{Kind: EventFileFailed, Index: i, Total: len(files), File: name, Err: err})
			rep.Report(Event{Kind: EventStopped, Index: i, Total: len(files), File: name})
			rep.Report(Event{Kind: EventDone, Index: i, Total: len(files), Summary: &sum})
			return sum, fmt.Errorf("%w at %s: %w", ErrBatchAborted, name, err)
		}
		sum.Succeeded++
	}

	rep.Report(Event{Kind: EventDone, Index: len(files), Total: len(files), Summary: &sum})
	return sum, nil
}

// Plan is what Run would do with one file.
type Plan struct {
	Input  string
	Output string
	Lens   string
	Policy *config.LensPolicy
	Err    error
}

// Inspect reads the lens of every input file and reports the branch each would take.
// Nothing is written; output paths are computed against the configured base directory.
func (b *Batch) Inspect(ctx context.Context) ([]Plan, error) {
	_, reader, closeReader, err := b.setup()
	if err != nil {
		return nil, err
	}
	defer closeReader()

	files, err := FindInputs(b.Config.InputDir, b.Config.Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no *%s files in %s", ErrNoInputs, b.Config.Extension, b.Config.InputDir)
	}

	policies := Policies(b.Config.Lenses)
	plans := make([]Plan, 0, len(files))
	for _, input := range files {
		if err := ctx.Err(); err != nil {
			return plans, err
		}
		plan := Plan{Input: input, Output: OutputPath(b.Config.OutputDir, input, b.Config.Suffix)}
		lens, ok, err := reader.ReadLens(ctx, input)
		if err != nil {
			plan.Err = err
		} else if ok {
			plan.Lens = lens
			if match, found := policies.Match(lens); found {
				plan.Policy = &match
			}
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
