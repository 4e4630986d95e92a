// Package pipeline sequences normalisation, transcription, summarisation and
// emotion classification over one input file.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/podcast-insight/internal/audio"
	"github.com/user/podcast-insight/internal/emotion"
	"github.com/user/podcast-insight/internal/features"
	"github.com/user/podcast-insight/internal/observe"
	"github.com/user/podcast-insight/internal/stt"
	"github.com/user/podcast-insight/internal/summariser"
)

// Orchestrator processes one file at a time. It holds no per-run state, so a
// single Orchestrator may serve concurrent Process calls as long as its
// collaborators are safe for concurrent use.
type Orchestrator struct {
	Normalizer  audio.Normalizer
	Transcriber *stt.Transcriber
	Summariser  *summariser.Summariser
	Extractor   *features.Extractor
	Classifier  *emotion.Classifier

	// WorkDir receives temporary normalised WAV files. Empty means the
	// system temp directory.
	WorkDir string

	Metrics *observe.Metrics
}

// New returns an orchestrator with the default extractor and classifier.
func New(n audio.Normalizer, t *stt.Transcriber, s *summariser.Summariser) *Orchestrator {
	return &Orchestrator{
		Normalizer:  n,
		Transcriber: t,
		Summariser:  s,
		Extractor:   features.NewExtractor(),
		Classifier:  emotion.NewClassifier(),
	}
}

// Process runs the whole pipeline over path. Any fatal failure is returned as
// a *StageError and no Result is produced. Feature extraction problems are
// not fatal: they surface as Result.FeatureStatus and an unknown emotion.
func (o *Orchestrator) Process(ctx context.Context, path string) (res *Result, err error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.process",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer func() {
		status := observe.StatusOK
		if err != nil {
			status = observe.StatusFailed
		}
		o.Metrics.CountFile(ctx, status)
		observe.EndSpan(span, err)
	}()

	started := time.Now()
	title := Title(path)
	logger := log.With().Str("file", filepath.Base(path)).Str("title", title).Logger()
	logger.Info().Msg("Processing file")

	var wavPath string
	if err := o.stage(ctx, StageNormalize, func(ctx context.Context) error {
		var err error
		wavPath, err = o.Normalizer.Normalize(ctx, path, o.WorkDir)
		return err
	}); err != nil {
		return nil, err
	}
	if wavPath != path {
		defer func() {
			if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("wav", wavPath).Msg("Failed to remove temporary file")
			}
		}()
	}

	result := &Result{
		ID:     uuid.NewString(),
		Title:  title,
		Source: path,
	}

	if err := o.stage(ctx, StageTranscribe, func(ctx context.Context) error {
		w, err := audio.Load(wavPath, audio.TranscriptionRate)
		if err != nil {
			return err
		}
		if ratio, err := audio.SpeechRatio(w); err != nil {
			logger.Warn().Err(err).Msg("Failed to measure speech ratio")
		} else {
			result.SpeechRatio = ratio
		}

		transcript, err := o.Transcriber.Transcribe(ctx, w)
		if err != nil {
			return err
		}
		result.Transcript = transcript.Text
		result.SkippedChunks = transcript.Skipped
		return nil
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, StageSummarise, func(ctx context.Context) error {
		summary, err := o.Summariser.Summarise(ctx, result.Transcript)
		if err != nil {
			return err
		}
		result.Summary = summary.Text
		result.SummaryStatus = summary.Status
		return nil
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, StageFeatures, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		x := o.Extractor.ExtractFile(wavPath)
		result.FeatureStatus = x.Status
		result.Features = x.Features
		result.Emotion = o.Classifier.Classify(x)
		return nil
	}); err != nil {
		return nil, err
	}
	o.Metrics.CountEmotion(ctx, string(result.Emotion.Primary))

	result.ProcessedAt = time.Now().UTC()

	logger.Info().
		Str("id", result.ID).
		Str("summary_status", string(result.SummaryStatus)).
		Str("feature_status", result.FeatureStatus.String()).
		Str("emotion", string(result.Emotion.Primary)).
		Dur("took", time.Since(started)).
		Msg("File processed")

	return result, nil
}

// stage runs fn inside a span, records its duration and wraps any error in a
// *StageError.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observe.StartSpan(ctx, "pipeline."+name)
	started := time.Now()

	err := fn(ctx)
	o.Metrics.RecordStage(ctx, name, started)
	observe.EndSpan(span, err)

	if err != nil {
		log.Error().Err(err).Str("stage", name).Msg("Pipeline stage failed")
		return &StageError{Stage: name, Err: err}
	}
	log.Debug().Str("stage", name).Dur("took", time.Since(started)).Msg("Pipeline stage completed")
	return nil
}
