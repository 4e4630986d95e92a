package vosk

import (
	"context"
	"encoding/json"
	"fmt"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/audio"
)

// Recognizer runs an offline Kaldi model. The model is shared; a fresh
// recogniser is created per window so calls can run concurrently.
type Recognizer struct {
	model *vosk.VoskModel
}

type voskResult struct {
	Text string `json:"text"`
}

// New loads the Vosk model at modelPath.
func New(modelPath string) (*Recognizer, error) {
	log.Info().Str("model_path", modelPath).Msg("Loading Vosk model")

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load Vosk model from %s: %w", modelPath, err)
	}
	return &Recognizer{model: model}, nil
}

// Recognize decodes one window and returns the final hypothesis.
func (v *Recognizer) Recognize(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rec, err := vosk.NewRecognizer(v.model, float64(sampleRate))
	if err != nil {
		return "", fmt.Errorf("failed to create Vosk recognizer: %w", err)
	}
	defer rec.Free()

	if rec.AcceptWaveform(audio.PCM16(samples)) < 0 {
		return "", fmt.Errorf("failed to process audio chunk")
	}

	raw := rec.FinalResult()
	var result voskResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("failed to parse Vosk result: %w", err)
	}

	log.Debug().
		Int("samples", len(samples)).
		Str("text", result.Text).
		Msg("Vosk transcription completed")

	return result.Text, nil
}

func (v *Recognizer) Close() error {
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}
