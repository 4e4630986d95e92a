// Package observe provides the OpenTelemetry metrics and tracing used across
// the pipeline. A nil *Metrics is valid and records nothing, so components
// can be constructed without telemetry in tests.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all pipeline metrics.
const meterName = "github.com/user/podcast-insight"

// Outcome values for the status attribute.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusDropped = "dropped"
)

// Metrics holds the pipeline instruments. The underlying OTel types are safe
// for concurrent use.
type Metrics struct {
	// StageDuration tracks the latency of each orchestrator stage.
	// Attribute: stage.
	StageDuration metric.Float64Histogram

	// Chunks counts transcription chunks. Attribute: status.
	Chunks metric.Int64Counter

	// Segments counts summariser segments. Attribute: status.
	Segments metric.Int64Counter

	// Files counts processed input files. Attribute: status.
	Files metric.Int64Counter

	// Emotions counts primary emotions. Attribute: emotion.
	Emotions metric.Int64Counter
}

// Stage durations run from milliseconds (features) to many minutes (long
// transcriptions).
var stageBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("podcast.stage.duration",
		metric.WithDescription("Latency of a pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Chunks, err = m.Int64Counter("podcast.chunks",
		metric.WithDescription("Transcription chunks by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Segments, err = m.Int64Counter("podcast.segments",
		metric.WithDescription("Summariser segments by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Files, err = m.Int64Counter("podcast.files",
		metric.WithDescription("Processed files by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Emotions, err = m.Int64Counter("podcast.emotions",
		metric.WithDescription("Primary emotion classifications."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// DefaultMetrics creates the instruments on the global meter provider.
func DefaultMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}

// RecordStage records the duration of stage since started.
func (m *Metrics) RecordStage(ctx context.Context, stage string, started time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}

// CountChunk counts one transcription chunk with the given status.
func (m *Metrics) CountChunk(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Chunks.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// CountSegments counts n summariser segments with the given status.
func (m *Metrics) CountSegments(ctx context.Context, status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Segments.Add(ctx, int64(n), metric.WithAttributes(attribute.String("status", status)))
}

// CountFile counts one processed file with the given status.
func (m *Metrics) CountFile(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Files.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// CountEmotion counts one classification.
func (m *Metrics) CountEmotion(ctx context.Context, emotion string) {
	if m == nil {
		return
	}
	m.Emotions.Add(ctx, 1, metric.WithAttributes(attribute.String("emotion", emotion)))
}
