package election

import (
	"context"
	"sync/atomic"
)

// StateManager is the serving path's own recovery hook, external to
// the election core. Reset must bring the local process into a state
// fit to serve as master — replaying or discarding whatever the
// previous master left in flight — and mint the epoch that names this
// mastership term. It is called exactly once per promotion, before
// CURRENT is published.
//
// Reset running long does not block lease renewal: it executes on the
// promotion worker goroutine, decoupled from the scheduler by the
// bounded job queue (C8).
type StateManager interface {
	Reset(ctx context.Context) (epoch int64, err error)
}

// NoopStateManager is a StateManager that mints a locally-incrementing
// epoch and does nothing else, useful for tests of the election core
// in isolation from any serving path.
type NoopStateManager struct {
	epoch atomic.Int64
}

func (m *NoopStateManager) Reset(ctx context.Context) (int64, error) {
	return m.epoch.Add(1), nil
}
