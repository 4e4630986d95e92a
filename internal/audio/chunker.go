package audio

import "time"

// DefaultChunkLength is the longest window a speech model is given at once.
const DefaultChunkLength = 30 * time.Second

// Window is a contiguous span of a waveform, [Start, End) in time and
// [StartSample, EndSample) in samples.
type Window struct {
	Index       int
	Start       time.Duration
	End         time.Duration
	StartSample int
	EndSample   int
}

// Samples returns the number of samples in the window.
func (w Window) Samples() int { return w.EndSample - w.StartSample }

// Windows partitions totalSamples into consecutive, non-overlapping windows
// of chunk length. The last window may be shorter. Boundaries are computed in
// time and floored to sample indices so long inputs do not drift. Windows
// that map to zero samples are skipped.
func Windows(totalSamples, sampleRate int, chunk time.Duration) []Window {
	if totalSamples <= 0 || sampleRate <= 0 || chunk <= 0 {
		return nil
	}

	total := time.Duration(totalSamples) * time.Second / time.Duration(sampleRate)
	if total*time.Duration(sampleRate) < time.Duration(totalSamples)*time.Second {
		// Round the duration up so the trailing partial nanosecond is covered.
		total++
	}

	var windows []Window
	for start := time.Duration(0); ; start += chunk {
		startSample := sampleIndex(start, sampleRate)
		if startSample >= totalSamples {
			break
		}

		end := min(start+chunk, total)
		endSample := min(sampleIndex(start+chunk, sampleRate), totalSamples)
		if endSample <= startSample {
			continue
		}

		windows = append(windows, Window{
			Index:       len(windows),
			Start:       start,
			End:         end,
			StartSample: startSample,
			EndSample:   endSample,
		})
	}
	return windows
}

// sampleIndex maps a time offset to floor(t * sampleRate).
func sampleIndex(t time.Duration, sampleRate int) int {
	return int(int64(t) * int64(sampleRate) / int64(time.Second))
}
