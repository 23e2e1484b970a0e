package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"dng-desqueeze/util/log"
)

// Result is the captured output of one exiftool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a non-zero exit status together with what exiftool wrote to stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("exiftool exited with status %d", e.Code)
	}
	return fmt.Sprintf("exiftool exited with status %d: %s", e.Code, msg)
}

// Runner runs exiftool with the given arguments.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// Cmd runs a fresh exiftool process per call.
type Cmd struct {
	Path string
	// PressEnter feeds a newline on stdin. The "exiftool(-k)" Windows build waits for a key
	// press before exiting and would otherwise hang.
	PressEnter bool
}

// NewCmd returns a Cmd for the binary at path.
func NewCmd(path string, pressEnter bool) *Cmd {
	return &Cmd{Path: path, PressEnter: pressEnter}
}

// Run executes exiftool and waits for it. A non-zero exit returns the Result along with an
// *ExitError; any other error means the process could not be run at all.
func (c *Cmd) Run(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.PressEnter {
		cmd.Stdin = strings.NewReader("\n")
	}

	log.Debugf("exiftool args: %q", args)
	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		log.Debugf("exiftool exit %d, stderr: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		return res, &ExitError{Code: res.ExitCode, Stderr: res.Stderr}
	}
	if err != nil {
		return res, fmt.Errorf("running %s: %w", c.Path, err)
	}
	return res, nil
}

// Version asks exiftool for its version number, e.g. "13.34".
func Version(ctx context.Context, r Runner) (string, error) {
	res, err := r.Run(ctx, "-ver")
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(res.Stdout)
	if v == "" {
		return "", errors.New("exiftool printed no version")
	}
	// The (-k) build appends a "-- press ENTER --" prompt after the number.
	if fields := strings.Fields(v); len(fields) > 0 {
		v = fields[0]
	}
	return v, nil
}
