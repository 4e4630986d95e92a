// Package openai summarises segments with an OpenAI-compatible chat model.
package openai

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/user/podcast-insight/internal/summariser"
)

// Summariser implements summariser.Model.
type Summariser struct {
	client *openai.Client
	model  string
}

// New creates a summariser. An empty baseURL uses the OpenAI API and an empty
// model uses gpt-4o-mini.
func New(apiKey, baseURL, model string) *Summariser {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Summariser{client: openai.NewClientWithConfig(cfg), model: model}
}

func (s *Summariser) Summarise(ctx context.Context, req summariser.Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: req.TokenBudget(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: summariser.Prompt(req)},
		},
	}
	if !req.Sample {
		// A zero temperature is dropped by omitempty.
		chatReq.Temperature = math.SmallestNonzeroFloat32
	}

	resp, err := s.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no summary generated")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Debug().
		Str("model", s.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Generated segment summary")

	return text, nil
}
