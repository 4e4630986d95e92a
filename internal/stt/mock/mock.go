// Package mock provides a test double for stt.Recognizer.
//
//	r := &mock.Recognizer{Texts: []string{"a", "b", "c"}}
//	tr := stt.NewTranscriber(models.ReadyHandle[stt.Recognizer]("speech", r))
package mock

import (
	"context"
	"sync"
)

// RecognizeCall records a single invocation of Recognize.
type RecognizeCall struct {
	Samples    int
	SampleRate int
}

// Recognizer is a mock implementation of stt.Recognizer. The n-th call
// returns Texts[n] (or Text once Texts is exhausted) unless Errs maps n to an
// error.
type Recognizer struct {
	mu sync.Mutex

	Text  string
	Texts []string

	// Errs injects an error for specific call indices.
	Errs map[int]error

	// Calls records every invocation in order.
	Calls []RecognizeCall
}

// Recognize implements stt.Recognizer.
func (r *Recognizer) Recognize(_ context.Context, samples []float32, sampleRate int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.Calls)
	r.Calls = append(r.Calls, RecognizeCall{Samples: len(samples), SampleRate: sampleRate})
	if err := r.Errs[n]; err != nil {
		return "", err
	}
	if n < len(r.Texts) {
		return r.Texts[n], nil
	}
	return r.Text, nil
}

// CallCount returns the number of Recognize calls so far.
func (r *Recognizer) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
