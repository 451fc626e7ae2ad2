// Package assistant wires configured collaborators into a pipeline.
package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tara/internal/audio"
	"tara/internal/audio/mic"
	"tara/internal/config"
	"tara/internal/history"
	"tara/internal/llm"
	"tara/internal/notify"
	"tara/internal/pipeline"
	"tara/internal/playback"
	"tara/internal/playback/device"
	"tara/internal/proxy"
	"tara/internal/tts"
	"tara/internal/tts/espeak"
	"tara/pkg/stt"
	"tara/pkg/stt/native"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func SetupLogging(level string) {
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[level],
	})))
}

// Assistant owns the collaborators of a pipeline and releases them on Close.
type Assistant struct {
	Store        *history.Store
	Orchestrator *pipeline.Orchestrator

	closers []func()
}

func (a *Assistant) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func New(cfg config.Config) (_ *Assistant, err error) {
	a := &Assistant{
		Store: history.NewStore(cfg.MemoryFilePath, cfg.MaxHistory),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("dial socks proxy %s: %w", cfg.Proxy, err)
	}

	out := device.New(device.DefaultSampleRate)
	a.closers = append(a.closers, out.Close)
	player := playback.New(out)

	capturer, err := a.capturer(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded capture", "backend", cfg.Capture)

	transcriber, err := a.transcriber(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded transcriber", "backend", cfg.STT)

	responder := a.responder(cfg, httpClient)
	log.Debug("Loaded language model", "backend", cfg.LLM)

	var synth pipeline.Synthesizer
	switch cfg.TTS {
	case config.TTSEspeak:
		synth = espeak.New(cfg.EspeakLang, cfg.EspeakRate)
	default:
		sc := tts.DefaultSpeechConfig()
		sc.Model, sc.Voice, sc.Output = cfg.TTSModel, cfg.TTSVoice, cfg.TTSOutput
		synth = tts.NewOpenAISpeech(cfg.OpenAIAPIKey, httpClient, sc, player)
	}
	log.Debug("Loaded synthesizer", "backend", cfg.TTS)

	deps := pipeline.Deps{
		Capturer:    capturer,
		Transcriber: transcriber,
		Responder:   responder,
		Synthesizer: synth,
		Memory:      a.Store,
	}
	if cfg.BeepFile != "" {
		deps.Cue = func(ctx context.Context) { notify.Beep(ctx, player, cfg.BeepFile) }
	}

	a.Orchestrator, err = pipeline.New(deps)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Run performs one turn under the configured timeout.
func (a *Assistant) Run(ctx context.Context, timeout time.Duration) (pipeline.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return a.Orchestrator.Run(ctx)
}

func (a *Assistant) capturer(cfg config.Config) (pipeline.Capturer, error) {
	if cfg.Capture != config.CaptureNative {
		return audio.NewCommandCapturer(cfg.RecordCommand, cfg.AudioInputPath), nil
	}

	rec := mic.NewRecorder(cfg.AudioInputPath, mic.DefaultRecorderConfig())
	if err := rec.Init(); err != nil {
		return nil, fmt.Errorf("init audio: %w", err)
	}
	a.closers = append(a.closers, rec.Close)
	return rec, nil
}

func (a *Assistant) transcriber(cfg config.Config) (pipeline.Transcriber, error) {
	if cfg.STT != config.STTNative {
		c := stt.NewCLI(cfg.WhisperPath, cfg.ModelPath, cfg.TranscriptBase)
		c.Language = cfg.Language
		c.Threads = cfg.Threads
		c.Translate = cfg.Translate
		c.Prompt = cfg.Prompt
		c.BeamSize = cfg.BeamSize
		c.Duration = cfg.MaxAudio
		return c, nil
	}

	t, err := native.NewTranscriber(cfg.ModelPath, native.Options{
		Language:      cfg.Language,
		Threads:       cfg.Threads,
		TranslateToEn: cfg.Translate,
		InitialPrompt: cfg.Prompt,
		BeamSize:      cfg.BeamSize,
		MaxAudio:      cfg.MaxAudio,
	})
	if err != nil {
		return nil, fmt.Errorf("init whisper: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := t.Close(); err != nil {
			log.Warn("Failed to close whisper", "err", err)
		}
	})
	return t, nil
}

func (a *Assistant) responder(cfg config.Config, httpClient *http.Client) pipeline.Responder {
	lc := llm.Config{
		Model:   cfg.LLMModel,
		Context: cfg.Context,
		History: a.Store.Load,
	}

	if cfg.LLM == config.LLMLocal {
		return llm.NewCompatible(cfg.LLMBaseURL, cfg.LocalAPIKey, httpClient, lc)
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(httpClient),
	)
	return llm.NewOpenAI(client, lc)
}
