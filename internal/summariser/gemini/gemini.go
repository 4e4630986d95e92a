package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/user/podcast-insight/internal/summariser"
)

// GeminiSummariser summarises segments with a Gemini model.
type GeminiSummariser struct {
	client *genai.Client
	model  string
}

func NewGeminiSummariser(ctx context.Context, apiKey, model string) (*GeminiSummariser, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSummariser{
		client: client,
		model:  model,
	}, nil
}

// Summarise implements summariser.Model. The word bounds go in the prompt and
// the output is capped at req.TokenBudget() tokens.
func (g *GeminiSummariser) Summarise(ctx context.Context, req summariser.Request) (string, error) {
	genModel := g.client.GenerativeModel(g.model)
	genModel.SetMaxOutputTokens(int32(req.TokenBudget()))
	if !req.Sample {
		genModel.SetTemperature(0)
	}

	resp, err := genModel.GenerateContent(ctx, genai.Text(summariser.Prompt(req)))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no summary generated")
	}

	var summary strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			summary.WriteString(string(text))
		}
	}

	log.Debug().
		Str("model", g.model).
		Int("input_length", len(req.Text)).
		Int("summary_length", summary.Len()).
		Msg("Generated segment summary")

	return strings.TrimSpace(summary.String()), nil
}

func (g *GeminiSummariser) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
