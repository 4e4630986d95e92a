package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/audio"
)

// DefaultURL is the pre-recorded transcription endpoint.
const DefaultURL = "https://api.deepgram.com/v1/listen"

// Recognizer posts each window to the Deepgram REST API.
type Recognizer struct {
	apiKey    string
	model     string
	language  string
	punctuate bool

	// URL is the listen endpoint. Tests point it at a local server.
	URL    string
	client *http.Client
}

type response struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// New creates a Deepgram recogniser. model is the Deepgram model or tier name
// (e.g. "nova-2"); an empty language means "en".
func New(apiKey, model, language string) *Recognizer {
	if language == "" {
		language = "en"
	}
	return &Recognizer{
		apiKey:    apiKey,
		model:     model,
		language:  language,
		punctuate: true,
		URL:       DefaultURL,
		client:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Recognize returns the top alternative of the first channel.
func (d *Recognizer) Recognize(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	wavData := audio.EncodeWAV(samples, sampleRate)

	params := url.Values{}
	if d.model != "" {
		params.Set("model", d.model)
	}
	params.Set("punctuate", fmt.Sprint(d.punctuate))
	params.Set("smart_format", "true")
	params.Set("language", d.language)
	fullURL := d.URL + "?" + params.Encode()

	log.Debug().
		Str("url", fullURL).
		Str("model", d.model).
		Int("audio_size_bytes", len(wavData)).
		Msg("Making Deepgram API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(wavData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Deepgram API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Deepgram API error response")
		return "", fmt.Errorf("Deepgram API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		log.Debug().Msg("No alternatives in Deepgram response")
		return "", nil
	}

	alt := result.Results.Channels[0].Alternatives[0]
	log.Debug().
		Float64("confidence", alt.Confidence).
		Int("chars", len(alt.Transcript)).
		Msg("Deepgram transcription completed")

	return alt.Transcript, nil
}
