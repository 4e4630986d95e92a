package features

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/podcast-insight/internal/audio"
)

func sineWave(freq float64, seconds float64, amp float32) *audio.Waveform {
	n := int(seconds * audio.AnalysisRate)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/audio.AnalysisRate))
	}
	return &audio.Waveform{Samples: samples, SampleRate: audio.AnalysisRate}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 18 {
		t.Fatalf("len(Names()) = %d, want 18", len(names))
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate feature name %q", n)
		}
		seen[n] = true
	}
	for _, want := range []string{"zcr_mean", "rmse_mean", "mfcc1_mean", "mfcc13_mean", "spectral_centroid_mean", "spectral_bandwidth_mean", "spectral_rolloff_mean"} {
		if !seen[want] {
			t.Errorf("missing feature %q", want)
		}
	}
}

func TestExtract_Silence(t *testing.T) {
	w := &audio.Waveform{Samples: make([]float32, audio.AnalysisRate), SampleRate: audio.AnalysisRate}

	got := NewExtractor().Extract(w)
	if got.Status != StatusOK {
		t.Fatalf("Status = %v (%v), want ok", got.Status, got.Err)
	}
	if !got.Features.Complete() {
		t.Fatalf("incomplete vector: %v", got.Features)
	}
	for _, name := range []string{ZCRMean, RMSMean, SpectralCentroidMean, SpectralBandwidthMean, SpectralRolloffMean} {
		if v := got.Features[name]; v != 0 {
			t.Errorf("%s = %v, want 0 for silence", name, v)
		}
	}

	// Every mel band sits at the 1e-10 floor (-100 dB), so only the DC
	// coefficient of the orthonormal DCT is non-zero.
	wantMFCC1 := -100 * math.Sqrt(NumMels)
	if d := math.Abs(got.Features[MFCCName(1)] - wantMFCC1); d > 1e-6 {
		t.Errorf("mfcc1_mean = %v, want %v", got.Features[MFCCName(1)], wantMFCC1)
	}
	for i := 2; i <= NumMFCC; i++ {
		if v := got.Features[MFCCName(i)]; math.Abs(v) > 1e-6 {
			t.Errorf("%s = %v, want 0", MFCCName(i), v)
		}
	}
}

func TestExtract_Sine(t *testing.T) {
	got := NewExtractor().Extract(sineWave(1000, 1, 0.5))
	if got.Status != StatusOK {
		t.Fatalf("Status = %v (%v), want ok", got.Status, got.Err)
	}

	tests := []struct {
		name     string
		min, max float64
	}{
		// 0.5/sqrt(2) in the steady state, pulled down by the zero-padded edges.
		{RMSMean, 0.30, 0.36},
		// 2000 crossings per second at 22050 Hz is ~0.0907 per sample.
		{ZCRMean, 0.08, 0.095},
		// The tone dominates, edge frames smear a little energy upwards.
		{SpectralCentroidMean, 950, 1400},
		{SpectralRolloffMean, 900, 1500},
		{SpectralBandwidthMean, 1, 1500},
	}
	for _, tt := range tests {
		v := got.Features[tt.name]
		if v < tt.min || v > tt.max {
			t.Errorf("%s = %v, want in [%v, %v]", tt.name, v, tt.min, tt.max)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	w := sineWave(440, 0.75, 0.3)
	e := NewExtractor()

	first := e.Extract(w)
	second := e.Extract(w)
	if first.Status != StatusOK || second.Status != StatusOK {
		t.Fatalf("statuses = %v, %v", first.Status, second.Status)
	}
	for _, name := range Names() {
		if first.Features[name] != second.Features[name] {
			t.Errorf("%s differs: %v vs %v", name, first.Features[name], second.Features[name])
		}
	}
}

func TestExtractFile_LoadFailed(t *testing.T) {
	got := NewExtractor().ExtractFile(filepath.Join(t.TempDir(), "missing.wav"))

	if got.Status != StatusLoadFailed {
		t.Fatalf("Status = %v, want load_failed", got.Status)
	}
	if len(got.Features) != 0 {
		t.Errorf("Features = %v, want empty", got.Features)
	}
	if got.Waveform != nil {
		t.Error("Waveform should be nil on load failure")
	}
	if got.Err == nil {
		t.Error("Err should describe the load failure")
	}
}

func TestExtractFile_FromDisk(t *testing.T) {
	w := sineWave(440, 0.5, 0.3)
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, audio.EncodeWAV(w.Samples, w.SampleRate), 0644); err != nil {
		t.Fatal(err)
	}

	got := NewExtractor().ExtractFile(path)
	if got.Status != StatusOK {
		t.Fatalf("Status = %v (%v), want ok", got.Status, got.Err)
	}
	if got.Waveform == nil || got.Waveform.SampleRate != audio.AnalysisRate {
		t.Fatalf("unexpected waveform %+v", got.Waveform)
	}
}

func TestExtract_PartialKeepsEarlierFeatures(t *testing.T) {
	saved := steps
	t.Cleanup(func() { steps = saved })

	boom := errors.New("mel projection failed")
	steps = []step{
		saved[0],
		saved[1],
		{"mfcc", func(*analysis, FeatureVector) error { return boom }},
		saved[3],
	}

	got := NewExtractor().Extract(sineWave(440, 0.5, 0.3))
	if got.Status != StatusPartial {
		t.Fatalf("Status = %v, want partial", got.Status)
	}
	if !errors.Is(got.Err, boom) {
		t.Errorf("Err = %v, want wrapped %v", got.Err, boom)
	}
	if len(got.Features) != 2 {
		t.Fatalf("Features = %v, want zcr and rms only", got.Features)
	}
	if _, ok := got.Features[ZCRMean]; !ok {
		t.Error("zcr_mean missing from partial vector")
	}
	if _, ok := got.Features[RMSMean]; !ok {
		t.Error("rmse_mean missing from partial vector")
	}
	if got.Waveform == nil {
		t.Error("Waveform should be kept on partial extraction")
	}
}

func TestExtract_PanicInStepIsPartial(t *testing.T) {
	saved := steps
	t.Cleanup(func() { steps = saved })

	steps = []step{
		saved[0],
		{"rms", func(*analysis, FeatureVector) error { panic("index out of range") }},
	}

	got := NewExtractor().Extract(sineWave(440, 0.5, 0.3))
	if got.Status != StatusPartial {
		t.Fatalf("Status = %v, want partial", got.Status)
	}
	if len(got.Features) != 1 {
		t.Errorf("Features = %v, want zcr only", got.Features)
	}
}

func TestExtract_NonFiniteIsPartial(t *testing.T) {
	saved := steps
	t.Cleanup(func() { steps = saved })

	steps = []step{
		{"rms", func(_ *analysis, v FeatureVector) error {
			v[RMSMean] = math.NaN()
			return nil
		}},
	}

	got := NewExtractor().Extract(sineWave(440, 0.5, 0.3))
	if got.Status != StatusPartial || !errors.Is(got.Err, ErrNonFinite) {
		t.Fatalf("got %v / %v, want partial with ErrNonFinite", got.Status, got.Err)
	}
	if _, ok := got.Features[RMSMean]; ok {
		t.Error("non-finite value must not be stored")
	}
}

func TestMelScaleRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 999, 1000, 4000, 11025} {
		if got := melToHz(hzToMel(hz)); math.Abs(got-hz) > 1e-6 {
			t.Errorf("melToHz(hzToMel(%v)) = %v", hz, got)
		}
	}
	if got := hzToMel(1000); got != 15 {
		t.Errorf("hzToMel(1000) = %v, want 15", got)
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(audio.AnalysisRate)
	if len(bank) != NumMels {
		t.Fatalf("len = %d, want %d", len(bank), NumMels)
	}
	for i, f := range bank {
		if len(f.weights) == 0 {
			t.Errorf("filter %d is empty", i)
		}
		if f.lo+len(f.weights) > FrameLength/2+1 {
			t.Errorf("filter %d overruns the spectrum", i)
		}
	}
}
