package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"tara/internal/notify"
)

type fakePlayer struct {
	played []string
	err    error
}

func (f *fakePlayer) Play(_ context.Context, path string) error {
	f.played = append(f.played, path)
	return f.err
}

func TestBeep(t *testing.T) {
	p := &fakePlayer{}
	notify.Beep(context.Background(), p, "beep.mp3")
	assert.Equal(t, []string{"beep.mp3"}, p.played)
}

func TestBeep_NoFile(t *testing.T) {
	p := &fakePlayer{}
	notify.Beep(context.Background(), p, "")
	assert.Empty(t, p.played)
}

func TestBeep_ErrorIgnored(t *testing.T) {
	p := &fakePlayer{err: errors.New("no device")}
	notify.Beep(context.Background(), p, "beep.mp3")
	assert.Len(t, p.played, 1)
}
