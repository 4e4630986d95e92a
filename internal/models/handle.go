// Package models tracks the lifecycle of the heavyweight collaborators
// (speech-to-text and summarisation models) that are loaded once per process
// and then shared read-only between concurrent pipeline runs.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrNotReady is returned when a collaborator is used before it has been
// loaded successfully.
var ErrNotReady = errors.New("model not ready")

// State is the load state of a Handle.
type State int

const (
	Unloaded State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LoadFunc constructs a collaborator. It is called at most once per
// successful load.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Handle owns one lazily loaded collaborator of type T.
type Handle[T any] struct {
	name string
	load LoadFunc[T]

	group singleflight.Group

	mutex sync.RWMutex
	state State
	value T
	err   error
}

// NewHandle returns an Unloaded handle. Nothing is loaded until Load is called.
func NewHandle[T any](name string, load LoadFunc[T]) *Handle[T] {
	return &Handle[T]{name: name, load: load}
}

// ReadyHandle wraps an already constructed collaborator in a handle that starts in
// the Ready state.
func ReadyHandle[T any](name string, value T) *Handle[T] {
	return &Handle[T]{name: name, state: Ready, value: value}
}

// Name returns the collaborator name used in logs and errors.
func (h *Handle[T]) Name() string { return h.name }

// State reports the current load state.
func (h *Handle[T]) State() State {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.state
}

// Load loads the collaborator if it is not loaded yet. Concurrent calls share
// a single in-flight load. A Failed handle is retried.
func (h *Handle[T]) Load(ctx context.Context) error {
	if h.State() == Ready {
		return nil
	}

	_, err, _ := h.group.Do(h.name, func() (any, error) {
		h.mutex.Lock()
		if h.state == Ready {
			h.mutex.Unlock()
			return nil, nil
		}
		if h.load == nil {
			h.mutex.Unlock()
			return nil, fmt.Errorf("%s: no loader configured", h.name)
		}
		h.state = Loading
		h.err = nil
		h.mutex.Unlock()

		log.Info().Str("model", h.name).Msg("Loading model")
		started := time.Now()

		value, err := h.load(ctx)

		h.mutex.Lock()
		defer h.mutex.Unlock()
		if err != nil {
			h.state = Failed
			h.err = err
			log.Error().Err(err).Str("model", h.name).Msg("Failed to load model")
			return nil, fmt.Errorf("failed to load %s: %w", h.name, err)
		}
		h.value = value
		h.state = Ready

		log.Info().
			Str("model", h.name).
			Dur("took", time.Since(started)).
			Msg("Model loaded successfully")
		return nil, nil
	})
	return err
}

// Get returns the loaded collaborator, or an error wrapping ErrNotReady when
// the handle is not in the Ready state.
func (h *Handle[T]) Get() (T, error) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.state != Ready {
		var zero T
		if h.err != nil {
			return zero, fmt.Errorf("%s (%s): %w: %v", h.name, h.state, ErrNotReady, h.err)
		}
		return zero, fmt.Errorf("%s (%s): %w", h.name, h.state, ErrNotReady)
	}
	return h.value, nil
}

// Close releases the collaborator if it implements io.Closer and returns the
// handle to the Unloaded state.
func (h *Handle[T]) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var err error
	if h.state == Ready {
		if closer, ok := any(h.value).(io.Closer); ok {
			err = closer.Close()
		}
	}
	var zero T
	h.value = zero
	h.state = Unloaded
	h.err = nil
	return err
}
