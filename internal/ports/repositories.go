package ports

import (
	"context"

	"phishdetect/internal/domain"
)

// SlotStore is a key-value store of JSON documents. The domain store keeps
// one slot per collection in a durable SlotStore and the session in a
// session-scoped one.
type SlotStore interface {
	// Load returns the slot payload; found is false when the slot was never written.
	Load(ctx context.Context, slot string) (payload []byte, found bool, err error)
	Save(ctx context.Context, slot string, payload []byte) error
	Delete(ctx context.Context, slot string) error
}

// EventPublisher announces recorded scans to other services.
type EventPublisher interface {
	PublishScan(ctx context.Context, scan domain.ScanResult) error
}
