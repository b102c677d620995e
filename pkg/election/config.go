package election

import (
	"time"

	"github.com/marmos91/tso-lease/pkg/coordination"
)

// Config configures a Controller.
type Config struct {
	// HostAndPort identifies this replica in LEASE and CURRENT
	// payloads, e.g. "10.0.0.12:9090".
	HostAndPort string

	// LeasePeriod is the nominal lease duration. The guard window
	// (leasePeriod/4) is subtracted from endLeaseMs only when computing
	// the next renewal fire time, not from endLeaseMs itself.
	LeasePeriod time.Duration

	// PollInterval bounds how long the scheduler ever sleeps between
	// fires, regardless of the computed next-fire delay. Defaults to
	// LeasePeriod if zero. This keeps the scheduler responsive to a
	// Stop() call even if a computed delay were ever implausibly
	// large.
	PollInterval time.Duration

	// PromotionStopTimeout bounds how long Stop waits for an in-flight
	// promotion job before giving up. Defaults to one LeasePeriod if
	// zero: a drain that cannot complete within a lease period means
	// the promotion job has outlived the window it was meant to serve.
	PromotionStopTimeout time.Duration

	// LeasePath is the coordination service path holding the LEASE
	// record. Defaults to coordination.LeasePath if empty.
	LeasePath string

	// CurrentPath is the coordination service path holding the
	// CURRENT record. Defaults to coordination.CurrentPath if empty.
	CurrentPath string
}

func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = c.LeasePeriod
	}
	if c.PromotionStopTimeout == 0 {
		c.PromotionStopTimeout = c.LeasePeriod
	}
	if c.LeasePath == "" {
		c.LeasePath = coordination.LeasePath
	}
	if c.CurrentPath == "" {
		c.CurrentPath = coordination.CurrentPath
	}
}
