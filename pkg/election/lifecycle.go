package election

import "context"

// Start ensures the LEASE and CURRENT paths exist and launches the
// scheduler and promotion queue goroutines. It returns once setup
// completes; the scheduler runs in the background from then on.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.Setup(ctx); err != nil {
		return err
	}
	c.sched = newScheduler(c)
	c.sched.Start(ctx)
	return nil
}

// Stop halts the scheduler and promotion queue, waiting up to the
// configured PromotionStopTimeout for any in-flight promotion to
// finish.
func (c *Controller) Stop() {
	if c.sched == nil {
		return
	}
	c.sched.Stop(c.cfg.PromotionStopTimeout)
}
