package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// hannWindow returns a periodic Hann window of length n, the variant used for
// spectral analysis.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// numFrames returns the frame count of a centred analysis of n samples.
func numFrames(n int) int {
	return 1 + n/HopLength
}

// padConstant pads y with FrameLength/2 zeros on each side.
func padConstant(y []float64) []float64 {
	pad := FrameLength / 2
	out := make([]float64, len(y)+2*pad)
	copy(out[pad:], y)
	return out
}

// padEdge pads y with FrameLength/2 copies of its first and last sample.
func padEdge(y []float64) []float64 {
	pad := FrameLength / 2
	out := make([]float64, len(y)+2*pad)
	copy(out[pad:], y)
	if len(y) == 0 {
		return out
	}
	for i := 0; i < pad; i++ {
		out[i] = y[0]
		out[len(out)-1-i] = y[len(y)-1]
	}
	return out
}

// spectrogram is a magnitude STFT, one row of FrameLength/2+1 bins per frame.
type spectrogram [][]float64

// stft computes |STFT(y)| with a periodic Hann window and centred,
// zero-padded frames.
func stft(y []float64, window []float64) spectrogram {
	padded := padConstant(y)
	frames := numFrames(len(y))
	fft := fourier.NewFFT(FrameLength)

	buf := make([]float64, FrameLength)
	coeffs := make([]complex128, FrameLength/2+1)
	spec := make(spectrogram, frames)
	for t := range frames {
		off := t * HopLength
		for i := range buf {
			buf[i] = padded[off+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, buf)

		row := make([]float64, len(coeffs))
		for k, c := range coeffs {
			row[k] = math.Hypot(real(c), imag(c))
		}
		spec[t] = row
	}
	return spec
}

// fftFrequencies returns the centre frequency of each STFT bin.
func fftFrequencies(sampleRate int) []float64 {
	bins := FrameLength/2 + 1
	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(FrameLength)
	}
	return freqs
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSP       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSP
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(f float64) float64 {
	if f >= melMinLogHz {
		return melMinLogMel + math.Log(f/melMinLogHz)/melLogStep
	}
	return f / melFSP
}

func melToHz(m float64) float64 {
	if m >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(m-melMinLogMel))
	}
	return melFSP * m
}

// melFilter is one triangular filter, stored sparsely over bins [lo, lo+len(weights)).
type melFilter struct {
	lo      int
	weights []float64
}

// melFilterBank builds NumMels Slaney-normalised triangular filters spanning
// 0 Hz to Nyquist.
func melFilterBank(sampleRate int) []melFilter {
	fftFreqs := fftFrequencies(sampleRate)

	maxMel := hzToMel(float64(sampleRate) / 2)
	melF := make([]float64, NumMels+2)
	for i := range melF {
		melF[i] = melToHz(maxMel * float64(i) / float64(NumMels+1))
	}

	bank := make([]melFilter, NumMels)
	for i := range NumMels {
		lowerWidth := melF[i+1] - melF[i]
		upperWidth := melF[i+2] - melF[i+1]
		enorm := 2.0 / (melF[i+2] - melF[i])

		f := melFilter{lo: -1}
		for k, freq := range fftFreqs {
			lower := (freq - melF[i]) / lowerWidth
			upper := (melF[i+2] - freq) / upperWidth
			w := math.Max(0, math.Min(lower, upper))
			if w == 0 {
				if f.lo >= 0 {
					break
				}
				continue
			}
			if f.lo < 0 {
				f.lo = k
			}
			f.weights = append(f.weights, w*enorm)
		}
		if f.lo < 0 {
			f.lo = 0
		}
		bank[i] = f
	}
	return bank
}

// melPowerDB projects a magnitude spectrogram onto the mel bank as power and
// converts to decibels relative to 1.0, clipped to topDB below the peak.
func melPowerDB(spec spectrogram, bank []melFilter) [][]float64 {
	out := make([][]float64, len(spec))
	peak := math.Inf(-1)
	for t, row := range spec {
		mel := make([]float64, len(bank))
		for i, f := range bank {
			var sum float64
			for j, w := range f.weights {
				m := row[f.lo+j]
				sum += w * m * m
			}
			db := 10 * math.Log10(math.Max(amin, sum))
			mel[i] = db
			peak = math.Max(peak, db)
		}
		out[t] = mel
	}

	floor := peak - topDB
	for _, mel := range out {
		for i, db := range mel {
			if db < floor {
				mel[i] = floor
			}
		}
	}
	return out
}

// dctBasis returns the first n rows of the orthonormal DCT-II matrix for
// inputs of length size.
func dctBasis(n, size int) [][]float64 {
	basis := make([][]float64, n)
	for k := range n {
		scale := math.Sqrt(2 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1 / float64(size))
		}
		row := make([]float64, size)
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*float64(2*i+1)/float64(2*size))
		}
		basis[k] = row
	}
	return basis
}

// l1 returns the sum of a non-negative spectrum row, or 1 when the row is
// effectively silent so it is left unnormalised.
func l1(row []float64) float64 {
	var sum float64
	for _, v := range row {
		sum += math.Abs(v)
	}
	if sum < tiny {
		return 1
	}
	return sum
}

// tiny is the smallest positive normal float64.
const tiny = 0x1p-1022

func frameCentroid(row, freqs []float64) float64 {
	norm := l1(row)
	var c float64
	for k, m := range row {
		c += freqs[k] * m / norm
	}
	return c
}

func frameBandwidth(row, freqs []float64, centre float64) float64 {
	norm := l1(row)
	var sum float64
	for k, m := range row {
		d := freqs[k] - centre
		sum += m / norm * d * d
	}
	return math.Sqrt(sum)
}

func frameRolloff(row, freqs []float64) float64 {
	var total float64
	for _, m := range row {
		total += m
	}
	threshold := RolloffPercent * total

	var cum float64
	for k, m := range row {
		cum += m
		if cum >= threshold {
			return freqs[k]
		}
	}
	return freqs[len(freqs)-1]
}
