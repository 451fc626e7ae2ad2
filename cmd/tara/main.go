package main

import (
	"context"
	"os"
	"os/signal"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"tara/internal/assistant"
	"tara/internal/config"
)

func main() {
	cfg, err := config.Load("tara", os.Args[1:], cli.ExitOnError)
	if err != nil {
		log.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	assistant.SetupLogging(cfg.LogLevel)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// failures are already reported by the pipeline
	if _, err := a.Run(ctx, cfg.Timeout); err != nil {
		stop()
		a.Close()
		os.Exit(1)
	}

	if cfg.TTS == config.TTSOpenAI {
		log.Info("Speech saved", "file", cfg.TTSOutput)
	}
}
