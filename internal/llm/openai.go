package llm

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
)

// OpenAI talks to the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	cfg    Config
}

func NewOpenAI(client openai.Client, cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT5Nano
	}
	return &OpenAI{client: client, cfg: cfg}
}

func (o *OpenAI) Respond(ctx context.Context, transcript string) (string, error) {
	recent, err := o.cfg.recent()
	if err != nil {
		return "", fmt.Errorf("load context: %w", err)
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2+2*len(recent))
	msgs = append(msgs, openai.SystemMessage(o.cfg.systemPrompt()))
	for _, e := range recent {
		msgs = append(msgs, openai.UserMessage(e.User), openai.AssistantMessage(e.Assistant))
	}
	msgs = append(msgs, openai.UserMessage(transcript))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    o.cfg.Model,
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
