package audio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/internal/audio"
	"tara/pkg/command"
)

type fakeRunner struct {
	spec   command.Spec
	result command.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, spec command.Spec) (command.Result, error) {
	f.spec = spec
	return f.result, f.err
}

func TestCommandCapturer_RunsWithoutArgs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output.wav")
	runner := &fakeRunner{}
	c := audio.NewCommandCapturer("record_audio", out)
	c.Runner = runner

	path, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, out, path)
	assert.Equal(t, "record_audio", runner.spec.Path)
	assert.Empty(t, runner.spec.Args)
}

func TestCommandCapturer_RemovesStaleRecording(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output.wav")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))

	c := audio.NewCommandCapturer("record_audio", out)
	c.Runner = &fakeRunner{}

	_, err := c.Capture(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestCommandCapturer_ExitFailure(t *testing.T) {
	c := audio.NewCommandCapturer("record_audio", filepath.Join(t.TempDir(), "output.wav"))
	c.Runner = &fakeRunner{result: command.Result{Path: "record_audio", ExitCode: 2, Stderr: "no input device"}}

	_, err := c.Capture(context.Background())

	var exitErr *command.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "no input device", exitErr.Stderr)
}

func TestCommandCapturer_RealProcess(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "record.sh")
	out := filepath.Join(dir, "output.wav")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf RIFF > "+out+"\n"), 0o755))

	path, err := audio.NewCommandCapturer(script, out).Capture(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
}
