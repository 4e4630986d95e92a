package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/podcast-insight/internal/emotion"
	"github.com/user/podcast-insight/internal/features"
	"github.com/user/podcast-insight/internal/summariser"
)

// Stage names used in errors, logs and metrics.
const (
	StageNormalize  = "normalize"
	StageTranscribe = "transcribe"
	StageSummarise  = "summarise"
	StageFeatures   = "features"
)

// Result is the record produced for one processed file.
type Result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Source     string `json:"source"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`

	SummaryStatus summariser.Status `json:"summary_status"`

	Emotion emotion.Result `json:"emotions"`

	FeatureStatus features.Status        `json:"feature_status"`
	Features      features.FeatureVector `json:"features,omitempty"`

	// SpeechRatio is the fraction of 30 ms frames flagged as speech. It is
	// diagnostic only.
	SpeechRatio float64 `json:"speech_ratio"`

	SkippedChunks []int     `json:"skipped_chunks,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// StageError is a fatal failure of one orchestrator stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Title derives a record title from a file path: the base name without its
// extension.
func Title(path string) string {
	base := filepath.Base(path)
	if title := strings.TrimSuffix(base, filepath.Ext(base)); title != "" {
		return title
	}
	return base
}
