package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", name)
	}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attr.Key); ok && v.AsString() == attr.Value.AsString() {
			return dp.Value
		}
	}
	return 0
}

func TestCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.CountChunk(ctx, StatusOK)
	m.CountChunk(ctx, StatusOK)
	m.CountChunk(ctx, StatusSkipped)
	m.CountSegments(ctx, StatusOK, 3)
	m.CountSegments(ctx, StatusDropped, 0)
	m.CountFile(ctx, StatusFailed)
	m.CountEmotion(ctx, "happy")

	rm := collect(t, reader)

	tests := []struct {
		metric string
		attr   attribute.KeyValue
		want   int64
	}{
		{"podcast.chunks", attribute.String("status", StatusOK), 2},
		{"podcast.chunks", attribute.String("status", StatusSkipped), 1},
		{"podcast.segments", attribute.String("status", StatusOK), 3},
		{"podcast.segments", attribute.String("status", StatusDropped), 0},
		{"podcast.files", attribute.String("status", StatusFailed), 1},
		{"podcast.emotions", attribute.String("emotion", "happy"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.metric+"/"+tt.attr.Value.AsString(), func(t *testing.T) {
			if got := sumFor(t, rm, tt.metric, tt.attr); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecordStage(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordStage(context.Background(), "transcribe", time.Now().Add(-2*time.Second))

	met := findMetric(collect(t, reader), "podcast.stage.duration")
	if met == nil {
		t.Fatal("podcast.stage.duration not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("podcast.stage.duration is not a histogram")
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("got %d data points, want 1", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 || dp.Sum < 2 {
		t.Errorf("count=%d sum=%v, want one observation of at least 2s", dp.Count, dp.Sum)
	}
	if v, _ := dp.Attributes.Value("stage"); v.AsString() != "transcribe" {
		t.Errorf("stage = %q, want transcribe", v.AsString())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordStage(ctx, "features", time.Now())
	m.CountChunk(ctx, StatusOK)
	m.CountSegments(ctx, StatusOK, 1)
	m.CountFile(ctx, StatusOK)
	m.CountEmotion(ctx, "sad")
}
