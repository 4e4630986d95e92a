// Package openai recognises speech with the hosted Whisper API, or any
// server implementing the OpenAI audio transcription endpoint.
package openai

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/user/podcast-insight/internal/audio"
)

// Recognizer uploads each window as a WAV file.
type Recognizer struct {
	client   *openai.Client
	model    string
	language string
}

// New creates a recogniser. An empty baseURL uses the OpenAI API and an empty
// model uses whisper-1.
func New(apiKey, baseURL, model, language string) *Recognizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Recognizer{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

// Recognize transcribes one window at temperature 0.
func (r *Recognizer) Recognize(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	wav := audio.EncodeWAV(samples, sampleRate)
	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       r.model,
		FilePath:    "chunk.wav",
		Reader:      bytes.NewReader(wav),
		Temperature: 0,
		Language:    r.language,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI transcription request failed: %w", err)
	}

	log.Debug().
		Str("model", r.model).
		Int("audio_size_bytes", len(wav)).
		Int("chars", len(resp.Text)).
		Msg("OpenAI transcription completed")

	return resp.Text, nil
}
