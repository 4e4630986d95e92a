package audio

import (
	"errors"
	"time"
)

const (
	// TranscriptionRate is the sample rate speech models expect.
	TranscriptionRate = 16000

	// AnalysisRate is the sample rate acoustic features are computed at.
	AnalysisRate = 22050
)

var (
	// ErrEmptyWaveform is returned when a file decodes to zero samples.
	ErrEmptyWaveform = errors.New("empty waveform")

	// ErrUnsupportedFormat is returned for containers the decoder cannot read.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Waveform is mono audio as float samples in [-1, 1] at a fixed sample rate.
// A Waveform is never mutated after Load returns it.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length of the waveform.
func (w *Waveform) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Slice returns the samples of a window. The returned slice shares memory
// with the waveform and must not be modified.
func (w *Waveform) Slice(win Window) []float32 {
	return w.Samples[win.StartSample:win.EndSample]
}
