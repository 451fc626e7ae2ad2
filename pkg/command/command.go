// Package command runs external programs and reports what they did as a
// structured result instead of a bare error.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type Spec struct {
	Path string
	Args []string
	Dir  string // empty = current directory
}

func (s Spec) String() string {
	return strings.Join(append([]string{s.Path}, s.Args...), " ")
}

type Result struct {
	Path     string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Err is nil on exit code 0, otherwise an *ExitError carrying stderr.
func (r Result) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{Path: r.Path, Code: r.ExitCode, Stderr: strings.TrimSpace(r.Stderr)}
}

type ExitError struct {
	Path   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Path, e.Code, e.Stderr)
}

type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// Exec runs programs with os/exec.
type Exec struct{}

// Run waits for the program to finish. The returned error is only set when
// the program could not be started or was killed through ctx; a non-zero exit
// is reported in Result.ExitCode.
func (Exec) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Path == "" {
		return Result{}, errors.New("empty command path")
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Path:   spec.Path,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", spec.Path, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("start %s: %w", spec.Path, err)
	}

	return res, nil
}
