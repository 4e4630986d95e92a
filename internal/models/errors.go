package models

import "fmt"

// InferenceError reports a collaborator failure on one chunk or segment.
type InferenceError struct {
	Stage string // "transcribe" or "summarise"
	Index int    // chunk or segment index, zero based
	Err   error
}

func (e *InferenceError) Error() string {
	unit := "chunk"
	if e.Stage == "summarise" {
		unit = "segment"
	}
	return fmt.Sprintf("%s %s %d: %v", e.Stage, unit, e.Index, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
