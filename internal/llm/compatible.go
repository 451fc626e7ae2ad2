package llm

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultLocalURL   = "http://localhost:11434/v1"
	DefaultLocalModel = "llama3.2"
)

// Compatible talks to any server exposing an OpenAI-compatible
// /chat/completions endpoint (llama.cpp server, Ollama, LM Studio).
type Compatible struct {
	client *openai.Client
	cfg    Config
}

func NewCompatible(baseURL, apiKey string, httpClient *http.Client, cfg Config) *Compatible {
	if baseURL == "" {
		baseURL = DefaultLocalURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLocalModel
	}

	oc := openai.DefaultConfig(apiKey)
	oc.BaseURL = baseURL
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	return &Compatible{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
	}
}

func (c *Compatible) Respond(ctx context.Context, transcript string) (string, error) {
	recent, err := c.cfg.recent()
	if err != nil {
		return "", fmt.Errorf("load context: %w", err)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2+2*len(recent))
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.cfg.systemPrompt()})
	for _, e := range recent {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: e.User},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: e.Assistant},
		)
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: transcript})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	log.Debug("Completion", "model", resp.Model, "tokens", resp.Usage.TotalTokens)

	return cleanReply(resp.Choices[0].Message.Content)
}
