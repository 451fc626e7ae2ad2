package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/pkg/command"
)

func TestExec_Success(t *testing.T) {
	res, err := command.Exec{}.Run(context.Background(), command.Spec{
		Path: "sh",
		Args: []string{"-c", "echo hello; echo warn >&2"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "warn\n", res.Stderr)
	assert.NoError(t, res.Err())
}

func TestExec_NonZeroExit(t *testing.T) {
	res, err := command.Exec{}.Run(context.Background(), command.Spec{
		Path: "sh",
		Args: []string{"-c", "echo 'model not found' >&2; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	var exitErr *command.ExitError
	require.True(t, errors.As(res.Err(), &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "model not found", exitErr.Stderr)
	assert.Contains(t, exitErr.Error(), "model not found")
}

func TestExec_Dir(t *testing.T) {
	dir := t.TempDir()

	res, err := command.Exec{}.Run(context.Background(), command.Spec{
		Path: "sh",
		Args: []string{"-c", "touch marker && ls"},
		Dir:  dir,
	})
	require.NoError(t, err)
	assert.Equal(t, "marker\n", res.Stdout)
}

func TestExec_MissingBinary(t *testing.T) {
	_, err := command.Exec{}.Run(context.Background(), command.Spec{Path: "/nonexistent/tara-binary"})
	assert.Error(t, err)
}

func TestExec_EmptyPath(t *testing.T) {
	_, err := command.Exec{}.Run(context.Background(), command.Spec{})
	assert.Error(t, err)
}

func TestExec_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := command.Exec{}.Run(ctx, command.Spec{Path: "sleep", Args: []string{"5"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSpecString(t *testing.T) {
	spec := command.Spec{Path: "whisper-cli", Args: []string{"-m", "model.bin", "-otxt"}}
	assert.Equal(t, "whisper-cli -m model.bin -otxt", spec.String())
}
