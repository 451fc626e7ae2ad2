package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cli "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/internal/config"
)

func TestDefault(t *testing.T) {
	c := config.Default()

	assert.Equal(t, "output.wav", c.AudioInputPath)
	assert.Equal(t, "output", c.TranscriptBase)
	assert.Equal(t, "memory.json", c.MemoryFilePath)
	assert.Equal(t, "models/ggml-base.en.bin", c.ModelPath)
	assert.Equal(t, 50, c.MaxHistory)
	assert.Equal(t, config.CaptureCommand, c.Capture)
	assert.Equal(t, config.STTCLI, c.STT)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TARA_WHISPER_PATH", "/opt/whisper/whisper-cli")
	t.Setenv("TARA_MEMORY_FILE", "/var/lib/tara/memory.json")
	t.Setenv("TARA_MAX_HISTORY", "20")
	t.Setenv("TARA_TIMEOUT", "90s")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	c := config.Default()
	require.NoError(t, c.FromEnv())

	assert.Equal(t, "/opt/whisper/whisper-cli", c.WhisperPath)
	assert.Equal(t, "/var/lib/tara/memory.json", c.MemoryFilePath)
	assert.Equal(t, 20, c.MaxHistory)
	assert.Equal(t, 90*time.Second, c.Timeout)
	assert.Equal(t, "sk-test", c.OpenAIAPIKey)
	assert.Equal(t, "output.wav", c.AudioInputPath)
}

func TestFromEnv_Decoding(t *testing.T) {
	t.Setenv("TARA_TRANSLATE", "true")
	t.Setenv("TARA_PROMPT", "Tara")
	t.Setenv("TARA_BEAM_SIZE", "5")
	t.Setenv("TARA_MAX_AUDIO", "45s")

	c := config.Default()
	require.NoError(t, c.FromEnv())

	assert.True(t, c.Translate)
	assert.Equal(t, "Tara", c.Prompt)
	assert.Equal(t, 5, c.BeamSize)
	assert.Equal(t, 45*time.Second, c.MaxAudio)
}

func TestFromEnv_BadDecoding(t *testing.T) {
	cases := map[string]string{
		"TARA_TRANSLATE": "maybe",
		"TARA_MAX_AUDIO": "long",
	}
	for key, v := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, v)
			c := config.Default()
			assert.ErrorContains(t, c.FromEnv(), key)
		})
	}
}

func TestFromEnv_BadNumber(t *testing.T) {
	t.Setenv("TARA_MAX_HISTORY", "fifty")

	c := config.Default()
	assert.ErrorContains(t, c.FromEnv(), "TARA_MAX_HISTORY")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TARA_AUDIO_INPUT=mic.wav\n"), 0o644))
	t.Setenv("TARA_AUDIO_INPUT", "")
	os.Unsetenv("TARA_AUDIO_INPUT")

	require.NoError(t, config.LoadEnvFile(path))

	c := config.Default()
	require.NoError(t, c.FromEnv())
	assert.Equal(t, "mic.wav", c.AudioInputPath)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, config.LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}

func TestBindRunFlags(t *testing.T) {
	c := config.Default()
	fs := cli.NewFlagSet("tara", cli.ContinueOnError)
	c.BindRunFlags(fs)
	c.BindCommonFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--memory", "chat.json",
		"--max-history", "5",
		"--llm", "local",
		"-l", "debug",
	}))

	assert.Equal(t, "chat.json", c.MemoryFilePath)
	assert.Equal(t, 5, c.MaxHistory)
	assert.Equal(t, config.LLMLocal, c.LLM)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "output.wav", c.AudioInputPath)
	assert.False(t, c.Translate)
	assert.Zero(t, c.BeamSize)
}

func TestBindRunFlags_Decoding(t *testing.T) {
	c := config.Default()
	fs := cli.NewFlagSet("tara", cli.ContinueOnError)
	c.BindRunFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--translate",
		"--prompt", "Tara, weather",
		"--beam-size", "5",
		"--max-audio", "30s",
	}))

	assert.True(t, c.Translate)
	assert.Equal(t, "Tara, weather", c.Prompt)
	assert.Equal(t, 5, c.BeamSize)
	assert.Equal(t, 30*time.Second, c.MaxAudio)
}

func validConfig() config.Config {
	c := config.Default()
	c.OpenAIAPIKey = "sk-test"
	return c
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	local := validConfig()
	local.LLM = config.LLMLocal
	local.TTS = config.TTSEspeak
	local.OpenAIAPIKey = ""
	assert.NoError(t, local.Validate())
}

func TestValidate_Errors(t *testing.T) {
	cases := map[string]func(*config.Config){
		"negative history": func(c *config.Config) { c.MaxHistory = -1 },
		"empty memory":     func(c *config.Config) { c.MemoryFilePath = "" },
		"unknown stt":      func(c *config.Config) { c.STT = "vosk" },
		"unknown capture":  func(c *config.Config) { c.Capture = "alsa" },
		"no record cmd":    func(c *config.Config) { c.RecordCommand = "" },
		"missing api key":  func(c *config.Config) { c.OpenAIAPIKey = "" },
		"negative timeout": func(c *config.Config) { c.Timeout = -time.Second },
		"negative beam":    func(c *config.Config) { c.BeamSize = -1 },
		"negative audio":   func(c *config.Config) { c.MaxAudio = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidate_ZeroHistoryAllowed(t *testing.T) {
	c := validConfig()
	c.MaxHistory = 0
	assert.NoError(t, c.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "tara.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"TARA_MEMORY_FILE=from-file.json\nTARA_AUDIO_INPUT=from-file.wav\n"), 0o644))
	t.Setenv("TARA_MEMORY_FILE", "from-env.json")
	t.Setenv("TARA_AUDIO_INPUT", "")
	os.Unsetenv("TARA_AUDIO_INPUT")

	c, err := config.Load("tara", []string{"--env", envFile, "--max-history", "7"}, cli.ContinueOnError)
	require.NoError(t, err)

	assert.Equal(t, "from-env.json", c.MemoryFilePath)
	assert.Equal(t, "from-file.wav", c.AudioInputPath)
	assert.Equal(t, 7, c.MaxHistory)

	c, err = config.Load("tara", []string{"--env", envFile, "--memory", "from-flag.json"}, cli.ContinueOnError)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.json", c.MemoryFilePath)
}

func TestLoad_BadFlag(t *testing.T) {
	_, err := config.Load("tara", []string{"--env", "", "--no-such-flag"}, cli.ContinueOnError)
	assert.Error(t, err)
}
