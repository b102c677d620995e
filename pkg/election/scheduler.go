package election

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/tso-lease/internal/logger"
)

// scheduler is the Lease Scheduler (C5): a single cooperative-loop
// goroutine that drives Controller.runCycle and sleeps for whatever
// delay the cycle computes, cancellable at any point.
type scheduler struct {
	controller *Controller

	stopCh  chan struct{}
	stopped chan struct{}
	mu      sync.Mutex
	started bool
}

func newScheduler(c *Controller) *scheduler {
	return &scheduler{
		controller: c,
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start launches the scheduler loop and the promotion queue worker.
// Safe to call once.
func (s *scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.controller.promQueue.Start(ctx)
	go s.loop(ctx)
}

func (s *scheduler) loop(ctx context.Context) {
	defer close(s.stopped)

	for {
		delay := s.controller.runCycle(ctx)

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// Stop signals the loop to exit and waits for it and the promotion
// queue to finish, up to timeout. The scheduler loop itself has no
// blocking I/O and is expected to exit promptly; the budget is spent
// almost entirely waiting for the promotion queue.
func (s *scheduler) Stop(timeout time.Duration) {
	close(s.stopCh)

	deadline := time.Now().Add(timeout)
	select {
	case <-s.stopped:
	case <-time.After(timeout):
		logger.Warn("election scheduler loop did not stop within timeout", "timeout", timeout)
	}

	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	s.controller.promQueue.Stop(remaining)
}
