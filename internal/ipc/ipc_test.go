package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/internal/ipc"
)

// unix socket paths are limited to ~100 bytes, t.TempDir can be longer
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tara")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func startServer(t *testing.T, handler ipc.HandlerFunc) string {
	t.Helper()
	path := socketPath(t)

	srv, err := ipc.Listen(path, handler)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		srv.Close()
	})
	return path
}

func TestSendReceivesReply(t *testing.T) {
	got := make(chan string, 1)
	path := startServer(t, func(_ context.Context, msg ipc.ControlMessage) ipc.Reply {
		got <- msg.Cmd
		return ipc.Reply{OK: true, Message: "cleared"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := ipc.Send(ctx, path, ipc.CmdClear)
	require.NoError(t, err)
	assert.Equal(t, ipc.Reply{OK: true, Message: "cleared"}, reply)
	assert.Equal(t, ipc.CmdClear, <-got)
}

func TestSendNoDaemon(t *testing.T) {
	_, err := ipc.Send(context.Background(), socketPath(t), ipc.CmdTrigger)
	assert.Error(t, err)
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	srv, err := ipc.Listen(path, func(context.Context, ipc.ControlMessage) ipc.Reply { return ipc.Reply{} })
	require.NoError(t, err)
	require.NoError(t, srv.Close())
}
