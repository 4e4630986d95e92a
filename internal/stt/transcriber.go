// Package stt turns long waveforms into a transcript by running a speech
// recogniser over consecutive fixed-length windows and joining the results in
// order.
package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/audio"
	"github.com/user/podcast-insight/internal/models"
	"github.com/user/podcast-insight/internal/observe"
)

// Recognizer is a speech-to-text backend. Recognize decodes the top
// hypothesis of one window of mono samples. Implementations must be safe for
// concurrent use; they are shared read-only between pipeline runs.
type Recognizer interface {
	Recognize(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// Transcript is the ordered result of a chunked transcription.
type Transcript struct {
	Text string

	// Chunks is the number of windows the waveform was split into.
	Chunks int

	// Skipped lists the indices of windows whose recognition failed and was
	// skipped. Always empty unless SkipFailedChunks is set.
	Skipped []int
}

// Transcriber splits audio into windows of ChunkLength and recognises them in
// order.
type Transcriber struct {
	recognizer *models.Handle[Recognizer]

	// ChunkLength is the window length. Zero means audio.DefaultChunkLength.
	ChunkLength time.Duration

	// SkipFailedChunks makes a per-window recognition error non-fatal: the
	// window is left out of the transcript and its index is reported in
	// Transcript.Skipped.
	SkipFailedChunks bool

	Metrics *observe.Metrics
}

// NewTranscriber returns a transcriber using the recogniser held by h.
func NewTranscriber(h *models.Handle[Recognizer]) *Transcriber {
	return &Transcriber{recognizer: h, ChunkLength: audio.DefaultChunkLength}
}

// TranscribeFile loads path at audio.TranscriptionRate and transcribes it.
func (t *Transcriber) TranscribeFile(ctx context.Context, path string) (Transcript, error) {
	if _, err := t.recognizer.Get(); err != nil {
		return Transcript{}, err
	}
	w, err := audio.Load(path, audio.TranscriptionRate)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to load audio for transcription: %w", err)
	}
	return t.Transcribe(ctx, w)
}

// Transcribe recognises every non-empty window of w and joins the decoded
// text with single spaces. It fails with models.ErrNotReady before the
// recogniser is loaded, and with a *models.InferenceError naming the chunk
// when recognition fails and SkipFailedChunks is not set.
func (t *Transcriber) Transcribe(ctx context.Context, w *audio.Waveform) (Transcript, error) {
	rec, err := t.recognizer.Get()
	if err != nil {
		return Transcript{}, err
	}

	chunk := t.ChunkLength
	if chunk <= 0 {
		chunk = audio.DefaultChunkLength
	}
	windows := audio.Windows(len(w.Samples), w.SampleRate, chunk)

	log.Info().
		Dur("duration", w.Duration()).
		Dur("chunk_length", chunk).
		Int("chunks", len(windows)).
		Msg("Starting transcription")

	var b strings.Builder
	result := Transcript{Chunks: len(windows)}
	for _, win := range windows {
		if err := ctx.Err(); err != nil {
			return Transcript{}, err
		}

		started := time.Now()
		text, err := rec.Recognize(ctx, w.Slice(win), w.SampleRate)
		if err != nil {
			if !t.SkipFailedChunks || ctx.Err() != nil {
				t.Metrics.CountChunk(ctx, observe.StatusFailed)
				return Transcript{}, &models.InferenceError{Stage: "transcribe", Index: win.Index, Err: err}
			}
			log.Warn().
				Err(err).
				Int("chunk_index", win.Index).
				Dur("start", win.Start).
				Msg("Skipping chunk after recognition failure")
			t.Metrics.CountChunk(ctx, observe.StatusSkipped)
			result.Skipped = append(result.Skipped, win.Index)
			continue
		}
		t.Metrics.CountChunk(ctx, observe.StatusOK)

		b.WriteString(" ")
		b.WriteString(text)

		log.Debug().
			Int("chunk_index", win.Index).
			Dur("start", win.Start).
			Dur("end", win.End).
			Int("chars", len(text)).
			Dur("took", time.Since(started)).
			Msg("Transcribed chunk")
	}

	result.Text = strings.TrimSpace(b.String())

	log.Info().
		Int("chunks", result.Chunks).
		Int("skipped", len(result.Skipped)).
		Int("transcript_length", len(result.Text)).
		Msg("Transcription completed")

	return result, nil
}
