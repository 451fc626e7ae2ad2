// Package config gathers every path and backend choice a run needs. Values
// come from defaults, then an env file and the environment, then flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"tara/internal/history"
	"tara/internal/ipc"
)

const (
	CaptureCommand = "command"
	CaptureNative  = "native"

	STTCLI    = "cli"
	STTNative = "native"

	LLMOpenAI = "openai"
	LLMLocal  = "local"

	TTSOpenAI = "openai"
	TTSEspeak = "espeak"
)

type Config struct {
	WhisperPath    string
	ModelPath      string
	AudioInputPath string
	TranscriptBase string // whisper -of, the transcript lands in <base>.txt
	MemoryFilePath string
	MaxHistory     int

	Capture       string
	RecordCommand string
	STT           string
	Language      string
	Threads       int
	Translate     bool
	Prompt        string
	BeamSize      int
	MaxAudio      time.Duration

	LLM          string
	LLMModel     string
	LLMBaseURL   string
	Context      int
	OpenAIAPIKey string
	LocalAPIKey  string

	TTS        string
	TTSModel   string
	TTSVoice   string
	TTSOutput  string
	EspeakLang string
	EspeakRate int
	BeepFile   string

	Proxy      string
	Timeout    time.Duration
	SocketPath string
	LogLevel   string
}

func Default() Config {
	return Config{
		WhisperPath:    "whisper-cli",
		ModelPath:      "models/ggml-base.en.bin",
		AudioInputPath: "output.wav",
		TranscriptBase: "output",
		MemoryFilePath: "memory.json",
		MaxHistory:     history.DefaultMaxSize,

		Capture:       CaptureCommand,
		RecordCommand: "record_audio",
		STT:           STTCLI,
		Language:      "en",

		LLM:     LLMOpenAI,
		Context: 10,

		TTS:        TTSOpenAI,
		TTSModel:   "tts-1",
		TTSVoice:   "alloy",
		TTSOutput:  "test_output.wav",
		EspeakLang: "en",

		SocketPath: ipc.DefaultSocketPath,
		LogLevel:   "info",
	}
}

// Load resolves the configuration for a command: defaults, then the env
// file named by --env, then the environment, then the remaining flags.
func Load(name string, args []string, errorHandling cli.ErrorHandling) (Config, error) {
	pre := cli.NewFlagSet(name, cli.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	envFile := pre.StringP("env", "e", ".env", "")
	_ = pre.Parse(args) // only --env matters here, the real parse reports errors

	if err := LoadEnvFile(*envFile); err != nil {
		return Config{}, fmt.Errorf("env file %s: %w", *envFile, err)
	}

	cfg := Default()
	if err := cfg.FromEnv(); err != nil {
		return Config{}, err
	}

	fs := cli.NewFlagSet(name, errorHandling)
	fs.StringP("env", "e", *envFile, "Env file path")
	cfg.BindRunFlags(fs)
	cfg.BindCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile reads KEY=VALUE pairs into the process environment. Variables
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// FromEnv overlays TARA_* variables and provider keys onto c.
func (c *Config) FromEnv() error {
	str := map[string]*string{
		"TARA_WHISPER_PATH":   &c.WhisperPath,
		"TARA_MODEL_PATH":     &c.ModelPath,
		"TARA_AUDIO_INPUT":    &c.AudioInputPath,
		"TARA_TRANSCRIPT":     &c.TranscriptBase,
		"TARA_MEMORY_FILE":    &c.MemoryFilePath,
		"TARA_CAPTURE":        &c.Capture,
		"TARA_RECORD_COMMAND": &c.RecordCommand,
		"TARA_STT":            &c.STT,
		"TARA_LANGUAGE":       &c.Language,
		"TARA_PROMPT":         &c.Prompt,
		"TARA_LLM":            &c.LLM,
		"TARA_LLM_MODEL":      &c.LLMModel,
		"TARA_LLM_URL":        &c.LLMBaseURL,
		"TARA_TTS":            &c.TTS,
		"TARA_TTS_VOICE":      &c.TTSVoice,
		"TARA_TTS_OUTPUT":     &c.TTSOutput,
		"TARA_BEEP":           &c.BeepFile,
		"TARA_PROXY":          &c.Proxy,
		"TARA_SOCKET":         &c.SocketPath,
		"OPENAI_API_KEY":      &c.OpenAIAPIKey,
		"TARA_LOCAL_API_KEY":  &c.LocalAPIKey,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	num := map[string]*int{
		"TARA_MAX_HISTORY": &c.MaxHistory,
		"TARA_CONTEXT":     &c.Context,
		"TARA_THREADS":     &c.Threads,
		"TARA_BEAM_SIZE":   &c.BeamSize,
	}
	for key, dst := range num {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	dur := map[string]*time.Duration{
		"TARA_TIMEOUT":   &c.Timeout,
		"TARA_MAX_AUDIO": &c.MaxAudio,
	}
	for key, dst := range dur {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv("TARA_TRANSLATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TARA_TRANSLATE: %w", err)
		}
		c.Translate = b
	}

	return nil
}

// BindRunFlags registers the pipeline options on fs with c's current values
// as defaults.
func (c *Config) BindRunFlags(fs *cli.FlagSet) {
	fs.StringVar(&c.WhisperPath, "whisper", c.WhisperPath, "whisper.cpp CLI binary")
	fs.StringVarP(&c.ModelPath, "model", "m", c.ModelPath, "Whisper model file")
	fs.StringVarP(&c.AudioInputPath, "audio", "a", c.AudioInputPath, "Recorded audio file")
	fs.StringVar(&c.TranscriptBase, "transcript", c.TranscriptBase, "Transcript basename (whisper -of)")
	fs.StringVar(&c.MemoryFilePath, "memory", c.MemoryFilePath, "Conversation history file")
	fs.IntVar(&c.MaxHistory, "max-history", c.MaxHistory, "Exchanges kept in history")

	fs.StringVar(&c.Capture, "capture", c.Capture, "Capture backend: command|native")
	fs.StringVar(&c.RecordCommand, "record-cmd", c.RecordCommand, "Recorder program for --capture=command")
	fs.StringVar(&c.STT, "stt", c.STT, "Transcription backend: cli|native")
	fs.StringVar(&c.Language, "lang", c.Language, "Spoken language")
	fs.IntVar(&c.Threads, "threads", c.Threads, "Whisper threads, 0 = default")
	fs.BoolVar(&c.Translate, "translate", c.Translate, "Translate speech to English")
	fs.StringVar(&c.Prompt, "prompt", c.Prompt, "Initial prompt for the whisper decoder")
	fs.IntVar(&c.BeamSize, "beam-size", c.BeamSize, "Whisper beam size, 0 = greedy/default")
	fs.DurationVar(&c.MaxAudio, "max-audio", c.MaxAudio, "Transcribe at most this much audio, 0 = all")

	fs.StringVar(&c.LLM, "llm", c.LLM, "Language model backend: openai|local")
	fs.StringVar(&c.LLMModel, "llm-model", c.LLMModel, "Chat model name")
	fs.StringVar(&c.LLMBaseURL, "llm-url", c.LLMBaseURL, "Base URL of the local OpenAI-compatible server")
	fs.IntVar(&c.Context, "context", c.Context, "Past exchanges sent to the model")

	fs.StringVar(&c.TTS, "tts", c.TTS, "Speech backend: openai|espeak")
	fs.StringVar(&c.TTSModel, "tts-model", c.TTSModel, "OpenAI speech model")
	fs.StringVar(&c.TTSVoice, "voice", c.TTSVoice, "OpenAI voice")
	fs.StringVar(&c.TTSOutput, "tts-out", c.TTSOutput, "Rendered speech file")
	fs.StringVar(&c.EspeakLang, "espeak-lang", c.EspeakLang, "espeak-ng voice language")
	fs.IntVar(&c.EspeakRate, "espeak-rate", c.EspeakRate, "espeak-ng words per minute, 0 = default")
	fs.StringVar(&c.BeepFile, "beep", c.BeepFile, "Cue played before recording (wav/mp3)")

	fs.StringVarP(&c.Proxy, "proxy", "p", c.Proxy, "SOCKS5 proxy address for model providers")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Limit for one run, 0 = none")
}

func (c *Config) BindCommonFlags(fs *cli.FlagSet) {
	fs.StringVarP(&c.LogLevel, "log", "l", c.LogLevel, "Log level")
	fs.StringVar(&c.SocketPath, "socket", c.SocketPath, "Control socket path")
}

func (c Config) Validate() error {
	var errs []error

	required := map[string]string{
		"audio":      c.AudioInputPath,
		"memory":     c.MemoryFilePath,
		"transcript": c.TranscriptBase,
	}
	for name, v := range required {
		if v == "" {
			errs = append(errs, fmt.Errorf("--%s must not be empty", name))
		}
	}

	if c.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("--max-history must be >= 0, got %d", c.MaxHistory))
	}
	if c.Context < 0 {
		errs = append(errs, fmt.Errorf("--context must be >= 0, got %d", c.Context))
	}
	if c.BeamSize < 0 {
		errs = append(errs, fmt.Errorf("--beam-size must be >= 0, got %d", c.BeamSize))
	}
	if c.MaxAudio < 0 {
		errs = append(errs, fmt.Errorf("--max-audio must be >= 0, got %s", c.MaxAudio))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("--timeout must be >= 0, got %s", c.Timeout))
	}

	errs = append(errs,
		oneOf("capture", c.Capture, CaptureCommand, CaptureNative),
		oneOf("stt", c.STT, STTCLI, STTNative),
		oneOf("llm", c.LLM, LLMOpenAI, LLMLocal),
		oneOf("tts", c.TTS, TTSOpenAI, TTSEspeak),
	)

	if c.Capture == CaptureCommand && c.RecordCommand == "" {
		errs = append(errs, errors.New("--record-cmd is required with --capture=command"))
	}
	if c.STT == STTCLI && c.WhisperPath == "" {
		errs = append(errs, errors.New("--whisper is required with --stt=cli"))
	}
	if c.ModelPath == "" {
		errs = append(errs, errors.New("--model must not be empty"))
	}
	if (c.LLM == LLMOpenAI || c.TTS == TTSOpenAI) && c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY not set"))
	}

	return errors.Join(errs...)
}

func oneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("--%s: unknown value %q (want one of %v)", name, v, allowed)
}
