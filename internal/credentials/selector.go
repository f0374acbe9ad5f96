// Package credentials holds the model API key selected for the console. The
// key can be replaced at runtime; readers always see the latest selection.
package credentials

import (
	"strings"
	"sync"

	"phishdetect/internal/ports"
)

const notConfigured = "NOT CONFIGURED"

type Selector struct {
	mu  sync.RWMutex
	key string
}

var _ ports.KeySource = (*Selector)(nil)

func NewSelector(initial string) *Selector {
	return &Selector{key: strings.TrimSpace(initial)}
}

// APIKey returns the selected key, or "" when none is selected.
func (s *Selector) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Select replaces the active key. An empty key clears the selection.
func (s *Selector) Select(key string) {
	s.mu.Lock()
	s.key = strings.TrimSpace(key)
	s.mu.Unlock()
}

func (s *Selector) Configured() bool { return s.APIKey() != "" }

// Masked renders the key for display: eight bullets and the last four
// characters.
func (s *Selector) Masked() string {
	key := s.APIKey()
	if key == "" {
		return notConfigured
	}
	tail := key
	if len(key) > 4 {
		tail = key[len(key)-4:]
	}
	return "••••••••" + tail
}
