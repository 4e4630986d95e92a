package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Normalizer converts an arbitrary input container into a file Load can read.
// The returned path is owned by the caller; when it differs from src the
// caller removes it after use.
type Normalizer interface {
	Normalize(ctx context.Context, src, workDir string) (string, error)
}

// FFmpegNormalizer shells out to ffmpeg to produce a mono 16-bit PCM WAV at
// the source sample rate.
type FFmpegNormalizer struct {
	Binary string // defaults to "ffmpeg"
}

func (n FFmpegNormalizer) Normalize(ctx context.Context, src, workDir string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("failed to stat input: %w", err)
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	bin := n.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	out := filepath.Join(workDir, fmt.Sprintf("%s_%s.wav", base, uuid.NewString()[:8]))

	// ffmpeg -y -i input -ac 1 -acodec pcm_s16le -f wav output
	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error",
		"-y", "-i", src,
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	log.Debug().
		Str("src", src).
		Str("wav", out).
		Msg("Normalized audio container")

	return out, nil
}

// PassthroughNormalizer accepts files Load can decode directly and rejects
// everything else. It is used when ffmpeg is not installed.
type PassthroughNormalizer struct{}

func (PassthroughNormalizer) Normalize(_ context.Context, src, _ string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("failed to stat input: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(src)); ext {
	case ".wav", ".mp3":
		return src, nil
	default:
		return "", fmt.Errorf("%w without ffmpeg: %q", ErrUnsupportedFormat, ext)
	}
}
