package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tara/pkg/command"
)

var ErrNoTranscript = errors.New("transcript file missing")

// CLI runs the whisper.cpp command line binary:
//
//	<Binary> -m <Model> -f <audio> -otxt -of <OutputBase>
//
// and reads <OutputBase>.txt back.
type CLI struct {
	Binary     string
	Model      string
	OutputBase string
	Language   string // empty = binary default
	Threads    int    // <=0 = binary default
	Translate  bool
	Prompt     string
	BeamSize   int           // <=0 = binary default
	Duration   time.Duration // <=0 = whole file

	Runner command.Runner
}

func NewCLI(binary, model, outputBase string) *CLI {
	return &CLI{
		Binary:     binary,
		Model:      model,
		OutputBase: outputBase,
		Runner:     command.Exec{},
	}
}

func (c *CLI) Spec(audioPath string) command.Spec {
	args := []string{"-m", c.Model, "-f", audioPath, "-otxt", "-of", c.OutputBase}
	if c.Language != "" {
		args = append(args, "-l", c.Language)
	}
	if c.Threads > 0 {
		args = append(args, "-t", fmt.Sprint(c.Threads))
	}
	if c.Translate {
		args = append(args, "-tr")
	}
	if c.Prompt != "" {
		args = append(args, "--prompt", c.Prompt)
	}
	if c.BeamSize > 0 {
		args = append(args, "-bs", fmt.Sprint(c.BeamSize))
	}
	if ms := c.Duration.Milliseconds(); ms > 0 {
		args = append(args, "-d", fmt.Sprint(ms))
	}
	return command.Spec{Path: c.Binary, Args: args}
}

func (c *CLI) TranscriptPath() string {
	return c.OutputBase + ".txt"
}

// Transcribe returns the trimmed transcript. A non-zero exit yields a
// *command.ExitError with the binary's stderr.
func (c *CLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	out := c.TranscriptPath()

	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove stale transcript: %w", err)
	}

	res, err := c.Runner.Run(ctx, c.Spec(audioPath))
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(out)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoTranscript, filepath.Clean(out))
	}
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}
