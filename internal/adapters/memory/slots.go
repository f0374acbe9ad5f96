// Package memory provides process-local adapters: a slot store used for the
// session scope (and for durable state when no database is configured) and
// an analysis job queue.
package memory

import (
	"context"
	"sync"

	"phishdetect/internal/ports"
)

// Slots is a SlotStore kept in process memory. Its contents live as long as
// the process, which is the lifetime of a console session.
type Slots struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var _ ports.SlotStore = (*Slots)(nil)

func NewSlots() *Slots {
	return &Slots{slots: make(map[string][]byte)}
}

func (s *Slots) Load(_ context.Context, slot string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Slots) Save(_ context.Context, slot string, payload []byte) error {
	s.mu.Lock()
	s.slots[slot] = append([]byte(nil), payload...)
	s.mu.Unlock()
	return nil
}

func (s *Slots) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	delete(s.slots, slot)
	s.mu.Unlock()
	return nil
}
