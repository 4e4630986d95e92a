// Package summariser condenses a transcript by summarising each long
// sentence-bounded segment independently and joining the results.
package summariser

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/models"
	"github.com/user/podcast-insight/internal/observe"
)

// Sentinel summaries.
const (
	TooShortText       = "Text too short to summarize."
	NoQualifyingText   = "Summary could not be generated."
	MinTranscriptChars = 100
	MinSegmentWords    = 50
)

// ErrEmptySummary is wrapped in the InferenceError returned when a model
// answers a segment with no text.
var ErrEmptySummary = errors.New("model returned an empty summary")

// Output token caps are this many tokens per requested word plus
// tokenSlack, so a summary of MaxLength words is never cut off.
const (
	TokensPerWord = 2
	tokenSlack    = 16
)

// Request is one call to a summarisation model. MaxLength and MinLength are
// word bounds for the generated summary.
type Request struct {
	Text      string
	MaxLength int
	MinLength int

	// Sample enables stochastic decoding. The summariser always sends false.
	Sample bool
}

// TokenBudget is the output token cap backends set for req.
func (r Request) TokenBudget() int {
	return r.MaxLength*TokensPerWord + tokenSlack
}

// Model is a summarisation backend. Implementations must be safe for
// concurrent use.
type Model interface {
	Summarise(ctx context.Context, req Request) (string, error)
}

// Status tags how a Summary was produced.
type Status string

const (
	StatusOK Status = "ok"

	// StatusTooShort means the transcript was below MinTranscriptChars and
	// the model was not called.
	StatusTooShort Status = "too_short"

	// StatusNoQualifyingSegment means no segment had more than
	// MinSegmentWords words.
	StatusNoQualifyingSegment Status = "no_qualifying_segment"
)

// Summary is the result of Summarise.
type Summary struct {
	Text   string
	Status Status

	// Segments is the number of sentence segments the transcript was split
	// into. Summarised of them were sent to the model and Dropped were too
	// short to qualify.
	Segments   int
	Summarised int
	Dropped    int
}

// Summariser runs a Model over the qualifying segments of a transcript.
type Summariser struct {
	model   *models.Handle[Model]
	Metrics *observe.Metrics
}

func New(h *models.Handle[Model]) *Summariser {
	return &Summariser{model: h}
}

// Bounds returns the summary length bounds for a segment of wordCount words:
// 60% and 30% of the input, floored.
func Bounds(wordCount int) (maxLength, minLength int) {
	return int(float64(wordCount) * 0.6), int(float64(wordCount) * 0.3)
}

// Summarise condenses transcript. It fails with models.ErrNotReady before the
// model is loaded and with a *models.InferenceError naming the segment when a
// model call fails. Segments of MinSegmentWords words or fewer are left out
// of the summary; Summary.Dropped counts them.
func (s *Summariser) Summarise(ctx context.Context, transcript string) (Summary, error) {
	model, err := s.model.Get()
	if err != nil {
		return Summary{}, err
	}

	if utf8.RuneCountInString(transcript) < MinTranscriptChars {
		log.Warn().
			Int("chars", utf8.RuneCountInString(transcript)).
			Msg("Transcript too short to summarise")
		return Summary{Text: TooShortText, Status: StatusTooShort}, nil
	}

	segments := SplitSentences(transcript)
	result := Summary{Segments: len(segments)}

	var parts []string
	for i, segment := range segments {
		words := len(strings.Fields(segment))
		if words <= MinSegmentWords {
			result.Dropped++
			continue
		}

		maxLength, minLength := Bounds(words)
		started := time.Now()
		text, err := model.Summarise(ctx, Request{
			Text:      segment,
			MaxLength: maxLength,
			MinLength: minLength,
			Sample:    false,
		})
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptySummary
		}
		if err != nil {
			s.Metrics.CountSegments(ctx, observe.StatusFailed, 1)
			return Summary{}, &models.InferenceError{Stage: "summarise", Index: i, Err: err}
		}
		s.Metrics.CountSegments(ctx, observe.StatusOK, 1)
		result.Summarised++
		parts = append(parts, strings.TrimSpace(text))

		log.Debug().
			Int("segment_index", i).
			Int("words", words).
			Int("max_length", maxLength).
			Int("min_length", minLength).
			Dur("took", time.Since(started)).
			Msg("Summarised segment")
	}
	s.Metrics.CountSegments(ctx, observe.StatusDropped, result.Dropped)

	if len(parts) == 0 {
		log.Warn().
			Int("segments", result.Segments).
			Msg("No segment long enough to summarise")
		result.Text = NoQualifyingText
		result.Status = StatusNoQualifyingSegment
		return result, nil
	}

	result.Text = strings.Join(parts, " ")
	result.Status = StatusOK

	log.Info().
		Int("segments", result.Segments).
		Int("summarised", result.Summarised).
		Int("dropped", result.Dropped).
		Int("summary_length", len(result.Text)).
		Msg("Summary generated")

	return result, nil
}

// SplitSentences splits text after every '.', '!' or '?' that is followed by
// whitespace. The punctuation stays with its sentence and the whitespace run
// is discarded. A trailing empty segment is kept when text ends in
// punctuation and whitespace.
func SplitSentences(text string) []string {
	var segments []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		if r != '.' && r != '!' && r != '?' {
			i = next
			continue
		}

		end := next
		for end < len(text) {
			ws, n := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(ws) {
				break
			}
			end += n
		}
		if end == next {
			i = next
			continue
		}
		segments = append(segments, text[start:next])
		start = end
		i = end
	}
	return append(segments, text[start:])
}
