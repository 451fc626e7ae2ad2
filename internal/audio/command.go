// Package audio provides the capture side of a run: either an external
// recording program or the built-in microphone recorder.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tara/pkg/command"
)

// CommandCapturer runs an external recorder with no arguments. The program
// is expected to leave the audio at Output.
type CommandCapturer struct {
	Program string
	Output  string
	Runner  command.Runner
}

func NewCommandCapturer(program, output string) *CommandCapturer {
	return &CommandCapturer{Program: program, Output: output, Runner: command.Exec{}}
}

func (c *CommandCapturer) Capture(ctx context.Context) (string, error) {
	if err := os.Remove(c.Output); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove stale recording: %w", err)
	}

	res, err := c.Runner.Run(ctx, command.Spec{Path: c.Program})
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	return c.Output, nil
}
