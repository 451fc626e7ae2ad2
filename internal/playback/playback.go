// Package playback plays wav and mp3 files through a Sink.
package playback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// Sink mixes streamers at a fixed sample rate.
type Sink interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer) error
	Clear()
}

const resampleQuality = 4

type Player struct {
	sink Sink

	// one file at a time
	mu sync.Mutex
}

func New(sink Sink) *Player { return &Player{sink: sink} }

// Play blocks until the file has been played or ctx is done. Files are
// resampled to the sink's rate.
func (p *Player) Play(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("cannot play %q files", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if rate := p.sink.SampleRate(); format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, streamer)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	done := make(chan struct{})
	err = p.sink.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.sink.Clear()
		return ctx.Err()
	}
}
