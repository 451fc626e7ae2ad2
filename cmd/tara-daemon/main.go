package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"tara/internal/assistant"
	"tara/internal/config"
	"tara/internal/ipc"
	"tara/internal/pipeline"
)

func main() {
	cfg, err := config.Load("tara-daemon", os.Args[1:], cli.ExitOnError)
	if err != nil {
		log.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	assistant.SetupLogging(cfg.LogLevel)

	log.Info("Booting up")

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	a, err := assistant.New(cfg)
	if err != nil {
		log.Error("Failed to start", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	d := &daemon{assistant: a, cfg: cfg}

	srv, err := ipc.Listen(cfg.SocketPath, d.handle)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	log.Info("Boot up - successful", "socket", cfg.SocketPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		log.Error("Failed ipc server", "err", err)
	}

	log.Info("Shutting down")
}

type daemon struct {
	assistant *assistant.Assistant
	cfg       config.Config

	// one run at a time, the history file has a single writer
	mu sync.Mutex
}

func (d *daemon) handle(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
	switch msg.Cmd {
	case ipc.CmdTrigger:
		return d.trigger(ctx)
	case ipc.CmdClear:
		d.mu.Lock()
		defer d.mu.Unlock()

		if err := d.assistant.Store.Clear(); err != nil {
			log.Error("Failed to clear history", "err", err)
			return ipc.Reply{Message: err.Error()}
		}
		log.Info("History cleared")
		return ipc.Reply{OK: true, Message: pipeline.ResetReply}
	default:
		log.Warn("Unknown command", "cmd", msg.Cmd)
		return ipc.Reply{Message: "unknown command " + msg.Cmd}
	}
}

func (d *daemon) trigger(ctx context.Context) ipc.Reply {
	if !d.mu.TryLock() {
		return ipc.Reply{Message: "busy"}
	}
	defer d.mu.Unlock()

	res, err := d.assistant.Run(ctx, d.cfg.Timeout)
	if err != nil {
		var se *pipeline.StepError
		if errors.As(err, &se) {
			return ipc.Reply{Message: se.Error()}
		}
		return ipc.Reply{Message: err.Error()}
	}
	return ipc.Reply{OK: true, Message: res.Reply}
}
