// Package notify gives the operator an audible cue that recording started.
package notify

import (
	"context"
	log "log/slog"
)

type Player interface {
	Play(ctx context.Context, path string) error
}

// Beep plays the cue file. A missing or broken cue never fails a run.
func Beep(ctx context.Context, p Player, path string) {
	if p == nil || path == "" {
		return
	}
	if err := p.Play(ctx, path); err != nil {
		log.Warn("Failed to play cue", "file", path, "err", err)
	}
}
