// Package marker records which distributions have already been handed
// to a mail provider. A marker is written before the transport call, so
// a crash between sending and archiving cannot produce a duplicate
// message on the next run.
package marker

import (
	"context"
	"sync"
)

// Store tracks send markers keyed by record content fingerprint.
type Store interface {
	// Seen reports whether a marker exists for the key.
	Seen(ctx context.Context, key string) (bool, error)
	// Mark records that the keyed distribution has been handed off.
	Mark(ctx context.Context, key string) error
}

// Memory is an in-process marker store. Markers do not survive a
// restart, so it only protects against duplicates within one run.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[key]
	return ok, nil
}

func (m *Memory) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = struct{}{}
	return nil
}
