// Package mic records from the default input device with portaudio.
package mic

import (
	"context"
	"errors"
	"fmt"
	"math"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"tara/pkg/audioconv"
)

var ErrNoSpeech = errors.New("no speech detected")

type RecorderConfig struct {
	SilenceRMS  float64       // frames below this are silence
	SilenceStop time.Duration // trailing silence that ends the utterance
	MaxLength   time.Duration
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SilenceRMS:  0.015,
		SilenceStop: 600 * time.Millisecond,
		MaxLength:   10 * time.Second,
	}
}

// Recorder captures one utterance from the default input device and writes
// it to a 16 kHz wav file.
type Recorder struct {
	out string
	cfg RecorderConfig
}

func NewRecorder(out string, cfg RecorderConfig) *Recorder {
	return &Recorder{out: out, cfg: cfg}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

func (r *Recorder) Capture(ctx context.Context) (string, error) {
	pcm, err := r.RecordAuto(ctx)
	if err != nil {
		return "", err
	}

	log.Debug("Recorded", "samples", len(pcm))

	if err := audioconv.WriteWAV16k(r.out, pcm); err != nil {
		return "", fmt.Errorf("write %s: %w", r.out, err)
	}
	return r.out, nil
}

// RecordAuto waits for speech and stops after SilenceStop of quiet or at
// MaxLength.
func (r *Recorder) RecordAuto(ctx context.Context) ([]float32, error) {
	const (
		sampleRate = audioconv.SampleRate
		frameSize  = 320 // 20ms
		frameDur   = 20 * time.Millisecond
	)

	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking bool
		silence  time.Duration
	)

	maxFrames := int(r.cfg.MaxLength / frameDur)

	for i := 0; i < maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > r.cfg.SilenceRMS {
			speaking = true
			silence = 0
			out = append(out, buf...)
			continue
		}

		if speaking {
			silence += frameDur
			if silence >= r.cfg.SilenceStop {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
