package store

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/user/podcast-insight/internal/emotion"
	"github.com/user/podcast-insight/internal/features"
	"github.com/user/podcast-insight/internal/pipeline"
	"github.com/user/podcast-insight/internal/summariser"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		ID:            "1234",
		Title:         "episode",
		Source:        "/in/episode.mp3",
		Transcript:    "hello world",
		Summary:       "A greeting.",
		SummaryStatus: summariser.StatusOK,
		Emotion:       emotion.NewClassifier().ClassifyFeatures(features.FeatureVector{features.RMSMean: 0.2, features.SpectralCentroidMean: 2500}),
		FeatureStatus: features.StatusPartial,
		Features:      features.FeatureVector{features.RMSMean: 0.2, features.SpectralCentroidMean: 2500},
		SpeechRatio:   0.75,
		SkippedChunks: []int{2},
		ProcessedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	want := sampleResult()

	resultPath, notesPath, err := s.Save(want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if resultPath != filepath.Join(dir, "results", "episode_1234.json") {
		t.Errorf("resultPath = %s", resultPath)
	}
	if notesPath != filepath.Join(dir, "notes", "episode_1234.md") {
		t.Errorf("notesPath = %s", notesPath)
	}

	got, err := s.LoadResult(resultPath)
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadResult() = %+v\nwant %+v", got, want)
	}
}

func TestResultJSONShape(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path, err := s.SaveResult(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"primary_emotion": "happy"`, `"feature_status": "partial"`, `"summary_status": "ok"`, `"happy": 0.5`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON missing %s:\n%s", want, data)
		}
	}
}

func TestReport(t *testing.T) {
	r := sampleResult()
	got := Report(r)
	for _, want := range []string{"# episode", "**Primary:** happy", "| happy | 0.5 |", "| sad | 0.1 |", "A greeting.", "hello world", "Chunks [2]"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}

	r.Emotion = emotion.UnknownResult()
	r.FeatureStatus = features.StatusLoadFailed
	if got := Report(r); !strings.Contains(got, "not available (load_failed)") {
		t.Errorf("unknown emotion not explained:\n%s", got)
	}
}

func TestLoadResult_Missing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadResult(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
