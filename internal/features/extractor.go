// Package features computes the fixed set of acoustic descriptors the
// emotion classifier consumes: zero-crossing rate, RMS energy, 13 MFCCs and
// the spectral centroid, bandwidth and rolloff, each reduced to its mean over
// frames.
//
// Framing follows the librosa defaults: 2048-sample frames, 512-sample hop
// and centred frames.
package features

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/user/podcast-insight/internal/audio"
)

const (
	FrameLength    = 2048
	HopLength      = 512
	NumMFCC        = 13
	NumMels        = 128
	RolloffPercent = 0.85

	zcrThreshold = 1e-10
	amin         = 1e-10
	topDB        = 80.0
)

// ErrNonFinite is returned by a descriptor step that produced NaN or Inf.
var ErrNonFinite = errors.New("non-finite feature value")

// Status tags the outcome of an extraction.
type Status int

const (
	StatusOK Status = iota
	StatusLoadFailed
	StatusPartial
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusLoadFailed:
		return "load_failed"
	case StatusPartial:
		return "partial"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ok":
		*s = StatusOK
	case "load_failed":
		*s = StatusLoadFailed
	case "partial":
		*s = StatusPartial
	default:
		return fmt.Errorf("unknown extraction status %q", b)
	}
	return nil
}

// Extraction is the tagged result of feature extraction.
//
//   - StatusOK: every feature in Names() is present and finite.
//   - StatusLoadFailed: the waveform could not be loaded; Features is empty
//     and Waveform is nil.
//   - StatusPartial: a descriptor step failed; Features holds everything
//     computed before it and Waveform is set.
type Extraction struct {
	Status   Status
	Features FeatureVector
	Waveform *audio.Waveform
	Err      error
}

// Extractor computes feature vectors at a fixed sample rate. It is safe for
// concurrent use.
type Extractor struct {
	sampleRate int
	window     []float64
	freqs      []float64
	melBank    []melFilter
	dct        [][]float64
}

// NewExtractor returns an extractor working at audio.AnalysisRate.
func NewExtractor() *Extractor {
	return NewExtractorAt(audio.AnalysisRate)
}

// NewExtractorAt returns an extractor for waveforms at sampleRate.
func NewExtractorAt(sampleRate int) *Extractor {
	return &Extractor{
		sampleRate: sampleRate,
		window:     hannWindow(FrameLength),
		freqs:      fftFrequencies(sampleRate),
		melBank:    melFilterBank(sampleRate),
		dct:        dctBasis(NumMFCC, NumMels),
	}
}

// SampleRate returns the rate waveforms are analysed at.
func (e *Extractor) SampleRate() int { return e.sampleRate }

// ExtractFile loads path at the extractor's sample rate and extracts
// features from it. A load failure is reported as StatusLoadFailed, not as
// an error.
func (e *Extractor) ExtractFile(path string) Extraction {
	w, err := audio.Load(path, e.sampleRate)
	if err != nil {
		log.Warn().
			Err(err).
			Str("file", filepath.Base(path)).
			Msg("Failed to load audio for feature extraction")
		return Extraction{Status: StatusLoadFailed, Features: FeatureVector{}, Err: err}
	}
	return e.Extract(w)
}

// step computes one group of descriptors into v.
type step struct {
	name string
	run  func(a *analysis, v FeatureVector) error
}

// steps run in this order; a failure keeps what earlier steps produced.
var steps = []step{
	{"zero_crossing_rate", (*analysis).zcr},
	{"rms", (*analysis).rms},
	{"mfcc", (*analysis).mfcc},
	{"spectral_centroid", (*analysis).centroid},
	{"spectral_bandwidth", (*analysis).bandwidth},
	{"spectral_rolloff", (*analysis).rolloff},
}

// Extract computes the feature vector of an already loaded waveform.
func (e *Extractor) Extract(w *audio.Waveform) Extraction {
	if w == nil || len(w.Samples) == 0 {
		return Extraction{Status: StatusLoadFailed, Features: FeatureVector{}, Err: audio.ErrEmptyWaveform}
	}
	if w.SampleRate != e.sampleRate {
		err := fmt.Errorf("waveform is %d Hz, extractor expects %d Hz", w.SampleRate, e.sampleRate)
		return Extraction{Status: StatusPartial, Features: FeatureVector{}, Waveform: w, Err: err}
	}

	a := newAnalysis(e, w)
	v := make(FeatureVector, len(Names()))
	for _, s := range steps {
		if err := runStep(s, a, v); err != nil {
			log.Warn().
				Err(err).
				Str("step", s.name).
				Int("computed", len(v)).
				Msg("Feature extraction incomplete, keeping partial vector")
			return Extraction{Status: StatusPartial, Features: v, Waveform: w, Err: err}
		}
	}

	log.Debug().
		Int("frames", numFrames(len(w.Samples))).
		Int("features", len(v)).
		Msg("Feature extraction completed")

	return Extraction{Status: StatusOK, Features: v, Waveform: w}
}

func runStep(s step, a *analysis, v FeatureVector) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", s.name, r)
		}
	}()

	computed := make(FeatureVector)
	if err := s.run(a, computed); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	for name, value := range computed {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%s: %s: %w", s.name, name, ErrNonFinite)
		}
	}
	for name, value := range computed {
		v[name] = value
	}
	return nil
}

// analysis holds per-waveform intermediate results shared between steps.
type analysis struct {
	e *Extractor
	y []float64

	spec spectrogram
}

func newAnalysis(e *Extractor, w *audio.Waveform) *analysis {
	y := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		y[i] = float64(s)
	}
	return &analysis{e: e, y: y}
}

func (a *analysis) spectrogram() spectrogram {
	if a.spec == nil {
		a.spec = stft(a.y, a.e.window)
	}
	return a.spec
}

func (a *analysis) zcr(v FeatureVector) error {
	padded := padEdge(a.y)
	frames := numFrames(len(a.y))
	rates := make([]float64, frames)
	for t := range frames {
		frame := padded[t*HopLength : t*HopLength+FrameLength]
		var crossings int
		prevNeg := frame[0] < -zcrThreshold
		for _, x := range frame[1:] {
			neg := x < -zcrThreshold
			if neg != prevNeg {
				crossings++
			}
			prevNeg = neg
		}
		rates[t] = float64(crossings) / FrameLength
	}
	v[ZCRMean] = stat.Mean(rates, nil)
	return nil
}

func (a *analysis) rms(v FeatureVector) error {
	padded := padConstant(a.y)
	frames := numFrames(len(a.y))
	energy := make([]float64, frames)
	for t := range frames {
		var sum float64
		for _, x := range padded[t*HopLength : t*HopLength+FrameLength] {
			sum += x * x
		}
		energy[t] = math.Sqrt(sum / FrameLength)
	}
	v[RMSMean] = stat.Mean(energy, nil)
	return nil
}

func (a *analysis) mfcc(v FeatureVector) error {
	mel := melPowerDB(a.spectrogram(), a.e.melBank)
	coeffs := make([][]float64, NumMFCC)
	for k := range coeffs {
		coeffs[k] = make([]float64, len(mel))
	}
	for t, bands := range mel {
		for k, basis := range a.e.dct {
			var c float64
			for i, b := range bands {
				c += basis[i] * b
			}
			coeffs[k][t] = c
		}
	}
	for k, series := range coeffs {
		v[MFCCName(k+1)] = stat.Mean(series, nil)
	}
	return nil
}

func (a *analysis) centroids() []float64 {
	spec := a.spectrogram()
	out := make([]float64, len(spec))
	for t, row := range spec {
		out[t] = frameCentroid(row, a.e.freqs)
	}
	return out
}

func (a *analysis) centroid(v FeatureVector) error {
	v[SpectralCentroidMean] = stat.Mean(a.centroids(), nil)
	return nil
}

func (a *analysis) bandwidth(v FeatureVector) error {
	spec := a.spectrogram()
	centres := a.centroids()
	out := make([]float64, len(spec))
	for t, row := range spec {
		out[t] = frameBandwidth(row, a.e.freqs, centres[t])
	}
	v[SpectralBandwidthMean] = stat.Mean(out, nil)
	return nil
}

func (a *analysis) rolloff(v FeatureVector) error {
	spec := a.spectrogram()
	out := make([]float64, len(spec))
	for t, row := range spec {
		out[t] = frameRolloff(row, a.e.freqs)
	}
	v[SpectralRolloffMean] = stat.Mean(out, nil)
	return nil
}
