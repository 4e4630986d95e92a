// Package whisper recognises speech locally with the whisper.cpp bindings.
// The static library and headers must be available at link time.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/audio"
)

// Recognizer holds one loaded whisper model. Each call creates its own
// context, which is not thread-safe, from the shared model.
type Recognizer struct {
	model    whisperlib.Model
	language string
}

// New loads the ggml model at modelPath. An empty language means "en".
func New(modelPath, language string) (*Recognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path must not be empty")
	}
	if language == "" {
		language = "en"
	}

	log.Info().Str("model_path", modelPath).Str("language", language).Msg("Loading whisper model")

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model %q: %w", modelPath, err)
	}
	return &Recognizer{model: model, language: language}, nil
}

// Recognize runs greedy decoding over one window. whisper.cpp only accepts
// 16 kHz input.
func (r *Recognizer) Recognize(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if sampleRate != audio.TranscriptionRate {
		return "", fmt.Errorf("whisper: sample rate %d, want %d", sampleRate, audio.TranscriptionRate)
	}
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := r.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(r.language); err != nil {
		log.Warn().Err(err).Str("language", r.language).Msg("Failed to set whisper language, using default")
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (r *Recognizer) Close() error {
	if r.model != nil {
		return r.model.Close()
	}
	return nil
}
