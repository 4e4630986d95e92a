package observe

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

func initTestProvider(t *testing.T, cfg ProviderConfig) (*prometheus.Registry, func(context.Context) error) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg.Registerer = reg
	shutdown, err := InitProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	return reg, shutdown
}

func TestInitProvider_Shutdown(t *testing.T) {
	_, shutdown := initTestProvider(t, ProviderConfig{ServiceVersion: "test"})
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitProvider_StdoutExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	_, shutdown := initTestProvider(t, ProviderConfig{
		TraceExporter: TraceExporterStdout,
		TraceWriter:   &buf,
	})

	_, span := StartSpan(context.Background(), "pipeline.transcribe")
	EndSpan(span, nil)

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "pipeline.transcribe") {
		t.Errorf("exported spans = %q, want pipeline.transcribe", out)
	}
	if !strings.Contains(out, "podcast-insight") {
		t.Errorf("exported spans missing service name: %q", out)
	}
}

func TestInitProvider_FileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	_, shutdown := initTestProvider(t, ProviderConfig{
		TraceExporter: TraceExporterFile,
		TraceFile:     path,
	})

	_, span := StartSpan(context.Background(), "pipeline.summarise")
	EndSpan(span, nil)

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read trace file: %v", err)
	}
	if !strings.Contains(string(data), "pipeline.summarise") {
		t.Errorf("trace file = %q, want pipeline.summarise", data)
	}
}

func TestInitProvider_BadExporter(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"unknown", ProviderConfig{TraceExporter: "jaeger"}},
		{"file without path", ProviderConfig{TraceExporter: TraceExporterFile}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Registerer = prometheus.NewRegistry()
			if _, err := InitProvider(context.Background(), tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	reg, shutdown := initTestProvider(t, ProviderConfig{})
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.CountFile(ctx, StatusOK)
	m.CountFile(ctx, StatusOK)
	m.CountFile(ctx, StatusFailed)
	m.RecordStage(ctx, "features", time.Now())

	snap, err := Snapshot(reg)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	find := func(prefix, label string) (float64, bool) {
		for k, v := range snap {
			if strings.HasPrefix(k, prefix) && strings.HasSuffix(k, label) {
				return v, true
			}
		}
		return 0, false
	}
	if v, ok := find("podcast_files", `{status="ok"}`); !ok || v != 2 {
		t.Errorf("files ok = %v (found %v), want 2; snapshot %v", v, ok, snap)
	}
	if v, ok := find("podcast_files", `{status="failed"}`); !ok || v != 1 {
		t.Errorf("files failed = %v (found %v), want 1", v, ok)
	}
	if v, ok := find("podcast_stage_duration", `_count{stage="features"}`); !ok || v != 1 {
		t.Errorf("stage count = %v (found %v), want 1; snapshot %v", v, ok, snap)
	}
	for k := range snap {
		if strings.Contains(k, "otel_") {
			t.Errorf("key %q carries scope labels", k)
		}
	}
}
