// Package mock provides a test double for summariser.Model.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/podcast-insight/internal/summariser"
)

// Model is a mock implementation of summariser.Model. When Response is empty
// it answers with a short description of the request.
type Model struct {
	mu sync.Mutex

	Response string

	// Responses overrides the answer for specific call indices, including
	// with an empty string.
	Responses map[int]string

	// Errs injects an error for specific call indices.
	Errs map[int]error

	// Calls records every request in order.
	Calls []summariser.Request
}

// Summarise implements summariser.Model.
func (m *Model) Summarise(_ context.Context, req summariser.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.Calls)
	m.Calls = append(m.Calls, req)
	if err := m.Errs[n]; err != nil {
		return "", err
	}
	if r, ok := m.Responses[n]; ok {
		return r, nil
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return fmt.Sprintf("summary %d (%d-%d)", n, req.MinLength, req.MaxLength), nil
}
