// Package tts vocalizes replies. OpenAISpeech renders the reply to an audio
// file with the OpenAI speech endpoint and hands it to a Player.
package tts

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

type Player interface {
	Play(ctx context.Context, path string) error
}

type SpeechConfig struct {
	BaseURL string // empty = api.openai.com
	Model   string
	Voice   string
	Output  string // rendered audio file
}

func DefaultSpeechConfig() SpeechConfig {
	return SpeechConfig{
		Model:  string(openai.TTSModel1),
		Voice:  string(openai.VoiceAlloy),
		Output: "test_output.wav",
	}
}

type OpenAISpeech struct {
	client *openai.Client
	cfg    SpeechConfig
	player Player
}

// NewOpenAISpeech returns a synthesizer that only writes cfg.Output when
// player is nil.
func NewOpenAISpeech(apiKey string, httpClient *http.Client, cfg SpeechConfig, player Player) *OpenAISpeech {
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	return &OpenAISpeech{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		player: player,
	}
}

func (s *OpenAISpeech) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	if err := s.render(ctx, text); err != nil {
		return err
	}

	log.Debug("Rendered speech", "file", s.cfg.Output)

	if s.player == nil {
		return nil
	}
	if err := s.player.Play(ctx, s.cfg.Output); err != nil {
		return fmt.Errorf("play %s: %w", s.cfg.Output, err)
	}
	return nil
}

func (s *OpenAISpeech) render(ctx context.Context, text string) error {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	f, err := os.Create(s.cfg.Output)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.cfg.Output, err)
	}
	return f.Close()
}
