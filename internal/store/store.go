package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/emotion"
	"github.com/user/podcast-insight/internal/pipeline"
)

// FileStore writes results as JSON under results/ and as Markdown reports
// under notes/.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	resultsDir := filepath.Join(baseDir, "results")
	notesDir := filepath.Join(baseDir, "notes")

	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	if err := os.MkdirAll(notesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}

	return &FileStore{
		baseDir: baseDir,
	}, nil
}

// Name returns the file stem used for r: "<title>_<id>".
func Name(r *pipeline.Result) string {
	return fmt.Sprintf("%s_%s", r.Title, r.ID)
}

// Save writes both the JSON record and the Markdown report and returns their
// paths.
func (s *FileStore) Save(r *pipeline.Result) (resultPath, notesPath string, err error) {
	if resultPath, err = s.SaveResult(r); err != nil {
		return "", "", err
	}
	if notesPath, err = s.SaveNotes(r); err != nil {
		return "", "", err
	}
	return resultPath, notesPath, nil
}

func (s *FileStore) SaveResult(r *pipeline.Result) (string, error) {
	path := filepath.Join(s.baseDir, "results", Name(r)+".json")

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	log.Info().
		Str("id", r.ID).
		Str("file", path).
		Msg("Saved result")

	return path, nil
}

func (s *FileStore) SaveNotes(r *pipeline.Result) (string, error) {
	path := filepath.Join(s.baseDir, "notes", Name(r)+".md")
	notes := Report(r)

	if err := os.WriteFile(path, []byte(notes), 0644); err != nil {
		return "", fmt.Errorf("failed to write notes file: %w", err)
	}

	log.Info().
		Str("id", r.ID).
		Str("file", path).
		Int("size", len(notes)).
		Msg("Saved notes")

	return path, nil
}

// LoadResult reads a JSON record written by SaveResult.
func (s *FileStore) LoadResult(path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}

	var r pipeline.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &r, nil
}

// Report renders r as Markdown.
func Report(r *pipeline.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "_Processed %s from `%s`_\n\n", r.ProcessedAt.Format("2006-01-02 15:04:05 MST"), filepath.Base(r.Source))

	b.WriteString("## Emotion\n\n")
	fmt.Fprintf(&b, "**Primary:** %s\n\n", r.Emotion.Primary)
	if r.Emotion.Known() {
		b.WriteString("| Emotion | Score |\n|---|---|\n")
		for _, e := range emotion.Emotions() {
			fmt.Fprintf(&b, "| %s | %.1f |\n", e, r.Emotion.Scores[e])
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Acoustic features were not available (%s).\n\n", r.FeatureStatus)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n")

	b.WriteString("## Transcript\n\n")
	if len(r.SkippedChunks) > 0 {
		fmt.Fprintf(&b, "> Chunks %v could not be transcribed and are missing.\n\n", r.SkippedChunks)
	}
	b.WriteString(r.Transcript)
	b.WriteString("\n")

	return b.String()
}
