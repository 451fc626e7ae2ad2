// Package device is the default output device behind playback.Sink.
package device

import (
	"errors"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const DefaultSampleRate beep.SampleRate = 44100

var ErrClosed = errors.New("speaker closed")

// Speaker initialises the beep speaker once, at a fixed rate, on first use.
// Re-initialising a running speaker can deadlock against its mixer.
type Speaker struct {
	rate beep.SampleRate

	mu     sync.Mutex
	opened bool
	closed bool
}

func New(rate beep.SampleRate) *Speaker {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Speaker{rate: rate}
}

func (s *Speaker) SampleRate() beep.SampleRate { return s.rate }

func (s *Speaker) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.opened {
		return nil
	}
	if err := speaker.Init(s.rate, s.rate.N(time.Second/10)); err != nil {
		return err
	}
	s.opened = true
	return nil
}

func (s *Speaker) Play(st beep.Streamer) error {
	if err := s.open(); err != nil {
		return err
	}
	speaker.Play(st)
	return nil
}

func (s *Speaker) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened && !s.closed {
		speaker.Clear()
	}
}

// Close releases the device if it was opened. Later Play calls fail.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened && !s.closed {
		speaker.Close()
	}
	s.closed = true
}
