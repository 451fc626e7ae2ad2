// Package llm turns a transcript into a spoken-style reply using a chat
// completion API. Recent exchanges from the history store are sent as prior
// turns so the model keeps the thread of the conversation.
package llm

import (
	"errors"
	"strings"

	"tara/internal/history"
)

const DefaultSystemPrompt = `You are Tara, a friendly voice assistant running on the user's machine.
Your replies are read aloud by a speech synthesizer:
- answer in one to three short sentences;
- no markdown, lists, code blocks or emoji;
- spell out symbols and units as words.`

var ErrEmptyReply = errors.New("empty reply")

// HistoryFunc returns the stored conversation, oldest first.
type HistoryFunc func() (history.History, error)

type Config struct {
	Model        string
	SystemPrompt string
	Context      int // exchanges of history sent along, 0 = none
	History      HistoryFunc
}

func (c Config) systemPrompt() string {
	if strings.TrimSpace(c.SystemPrompt) == "" {
		return DefaultSystemPrompt
	}
	return c.SystemPrompt
}

func (c Config) recent() (history.History, error) {
	if c.History == nil || c.Context <= 0 {
		return nil, nil
	}
	h, err := c.History()
	if err != nil {
		return nil, err
	}
	return h.Tail(c.Context), nil
}

func cleanReply(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyReply
	}
	return s, nil
}
