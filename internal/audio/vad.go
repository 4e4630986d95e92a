package audio

import (
	"fmt"
	"math"

	"github.com/maxhawkins/go-webrtcvad"
)

// vadFrameDuration is the frame length WebRTC VAD is fed, in milliseconds.
const vadFrameDuration = 30

// WebRTCVAD classifies short frames as speech or non-speech. It is not safe
// for concurrent use; create one per waveform.
type WebRTCVAD struct {
	vad          *webrtcvad.VAD
	rmsThreshold float64
}

func NewWebRTCVAD() (*WebRTCVAD, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}

	// Set aggressiveness (0-3, where 3 is most aggressive)
	if err := vad.SetMode(2); err != nil {
		return nil, err
	}

	return &WebRTCVAD{
		vad:          vad,
		rmsThreshold: 500.0 / 32768.0, // Fallback RMS threshold
	}, nil
}

// IsSpeech reports whether a single frame contains speech. Frames WebRTC VAD
// rejects fall back to an RMS threshold.
func (v *WebRTCVAD) IsSpeech(frame []float32, sampleRate int) bool {
	if !webrtcvad.ValidRateAndFrameLength(sampleRate, len(frame)) {
		return v.rmsIsSpeech(frame)
	}

	isSpeech, err := v.vad.Process(sampleRate, PCM16(frame))
	if err != nil {
		return v.rmsIsSpeech(frame)
	}
	return isSpeech
}

func (v *WebRTCVAD) rmsIsSpeech(frame []float32) bool {
	if len(frame) == 0 {
		return false
	}

	var sum float64
	for _, sample := range frame {
		sum += float64(sample) * float64(sample)
	}

	rms := math.Sqrt(sum / float64(len(frame)))
	return rms > v.rmsThreshold
}

// SpeechRatio returns the fraction of 30 ms frames of w that contain speech.
// The waveform must be at a rate WebRTC VAD supports (8, 16, 32 or 48 kHz).
func SpeechRatio(w *Waveform) (float64, error) {
	switch w.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return 0, fmt.Errorf("vad: unsupported sample rate %d", w.SampleRate)
	}

	vad, err := NewWebRTCVAD()
	if err != nil {
		return 0, fmt.Errorf("failed to create voice activity detector: %w", err)
	}

	frameLen := w.SampleRate * vadFrameDuration / 1000
	var frames, voiced int
	for start := 0; start+frameLen <= len(w.Samples); start += frameLen {
		frames++
		if vad.IsSpeech(w.Samples[start:start+frameLen], w.SampleRate) {
			voiced++
		}
	}
	if frames == 0 {
		return 0, nil
	}
	return float64(voiced) / float64(frames), nil
}
