package ledger

import (
	"context"
	"sync"
)

// Recorder is the minimal interface the election package depends on,
// satisfied by *Store and by MemoryRecorder for tests.
type Recorder interface {
	RecordPromotion(ctx context.Context, p Promotion) error
}

// MemoryRecorder is an in-memory Recorder for tests that don't need a
// real database.
type MemoryRecorder struct {
	mu         sync.Mutex
	promotions []Promotion
}

// NewMemoryRecorder builds an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) RecordPromotion(ctx context.Context, p Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promotions = append(m.promotions, p)
	return nil
}

// Promotions returns a copy of every recorded promotion, oldest first.
func (m *MemoryRecorder) Promotions() []Promotion {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Promotion, len(m.promotions))
	copy(out, m.promotions)
	return out
}
