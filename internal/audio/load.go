package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog/log"
)

// resampleQuality is passed to beep.Resample. 4 is the value beep recommends
// for offline processing.
const resampleQuality = 4

const streamBufferSize = 4096

// Load decodes a WAV or MP3 file, mixes it down to mono and resamples it to
// sampleRate. Each consumer loads the file at its own rate.
func Load(path string, sampleRate int) (*Waveform, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if int(format.SampleRate) != sampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(sampleRate), streamer)
	}

	estimate := streamer.Len()
	if int(format.SampleRate) > 0 {
		estimate = int(int64(estimate) * int64(sampleRate) / int64(format.SampleRate))
	}
	samples := make([]float32, 0, estimate+streamBufferSize)

	buf := make([][2]float64, streamBufferSize)
	for {
		n, ok := source.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, float32((frame[0]+frame[1])/2))
		}
		if !ok {
			break
		}
	}
	if err := source.Err(); err != nil {
		return nil, fmt.Errorf("failed to stream %s: %w", filepath.Base(path), err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyWaveform)
	}

	log.Debug().
		Str("file", filepath.Base(path)).
		Int("source_rate", int(format.SampleRate)).
		Int("channels", format.NumChannels).
		Int("sample_rate", sampleRate).
		Int("samples", len(samples)).
		Msg("Loaded waveform")

	return &Waveform{Samples: samples, SampleRate: sampleRate}, nil
}
