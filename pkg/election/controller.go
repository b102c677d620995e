// Package election implements the lease-based master election core:
// a Controller acquires and renews a lease against a coordination.Gateway,
// publishes a monotonically increasing epoch on first acquisition, and
// exposes a wait-free View.InLeasePeriod predicate for the serving path.
package election

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/marmos91/tso-lease/internal/clock"
	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/internal/telemetry"
	"github.com/marmos91/tso-lease/pkg/coordination"
	"github.com/marmos91/tso-lease/pkg/ledger"
	"github.com/marmos91/tso-lease/pkg/metrics"
)

const (
	initialBackoff = 50 * time.Millisecond
)

// Controller is the Lease Controller (C6): it owns LocalLeaseState and
// is the only writer of View's atomic fields. All of its exported
// methods except RequestStepDown and View are intended to be driven by
// a single scheduler goroutine; RequestStepDown is safe to call from
// any goroutine.
type Controller struct {
	gateway      coordination.Gateway
	clk          clock.Clock
	stateManager StateManager
	panicker     Panicker
	metrics      *metrics.ElectionMetrics

	cfg   Config
	state LocalLeaseState

	view *View

	holding bool
	backoff time.Duration

	promQueue *promotionQueue
	sched     *scheduler

	// ledgerRecorder is optional; when set, every successful
	// promotion is additionally recorded there. A nil recorder (the
	// default) disables audit recording entirely.
	ledgerRecorder ledger.Recorder

	stepDownRequested atomic.Bool

	ready atomic.Bool
}

// NewController builds a Controller. The returned Controller is idle
// until Start is called.
func NewController(gateway coordination.Gateway, clk clock.Clock, stateManager StateManager, panicker Panicker, m *metrics.ElectionMetrics, cfg Config) *Controller {
	cfg.applyDefaults()

	c := &Controller{
		gateway:      gateway,
		clk:          clk,
		stateManager: stateManager,
		panicker:     panicker,
		metrics:      m,
		cfg:          cfg,
		state:        newLocalLeaseState(cfg.HostAndPort, cfg.LeasePeriod.Milliseconds()),
		view:         newView(clk),
	}
	c.promQueue = newPromotionQueue(c.runPromotion, panicker)
	return c
}

// SetLedgerRecorder attaches an optional audit recorder. Must be
// called before Start; not safe to call concurrently with a running
// scheduler.
func (c *Controller) SetLedgerRecorder(r ledger.Recorder) {
	c.ledgerRecorder = r
}

// View returns the read-only view of lease state for the serving path.
func (c *Controller) View() *View {
	return c.view
}

// Ready reports whether the controller has completed at least one
// full acquisition attempt, for use by a readiness probe.
func (c *Controller) Ready() bool {
	return c.ready.Load()
}

// RequestStepDown asks the controller to voluntarily release the
// lease at its next cycle, without waiting for a VersionMismatch. Safe
// to call from any goroutine (e.g. an admin HTTP handler).
func (c *Controller) RequestStepDown() {
	c.stepDownRequested.Store(true)
}

// Setup ensures the LEASE and CURRENT paths exist in the coordination
// service. Must succeed before Start is called; failure is a
// SetupError and should abort process startup rather than be retried
// silently, since it usually indicates a CS misconfiguration.
func (c *Controller) Setup(ctx context.Context) error {
	if err := c.gateway.EnsurePath(ctx, c.cfg.LeasePath); err != nil {
		return NewSetupError("ensure LEASE path: " + err.Error())
	}
	if err := c.gateway.EnsurePath(ctx, c.cfg.CurrentPath); err != nil {
		return NewSetupError("ensure CURRENT path: " + err.Error())
	}
	return nil
}

// runCycle is invoked by the scheduler on every fire. It returns the
// delay to sleep before the next fire.
func (c *Controller) runCycle(ctx context.Context) time.Duration {
	nowMs := c.clk.NowMs()

	if c.holding && c.stepDownRequested.Swap(false) {
		logger.Info("election: voluntary step-down requested")
		c.demote()
		return c.cfg.PollInterval
	}

	if !c.holding {
		transportErr := c.tryAcquire(ctx)
		c.ready.Store(true)
		if transportErr {
			return c.nextBackoff()
		}
		c.backoff = 0
		if !c.holding {
			return c.cfg.PollInterval
		}
		return c.renewDelay(nowMs)
	}

	renewAtMs := c.state.endLeaseMs - c.state.guardMs
	if nowMs >= renewAtMs {
		transportErr := c.tryRenew(ctx)
		if transportErr {
			return c.nextBackoff()
		}
		c.backoff = 0
	}

	return c.renewDelay(c.clk.NowMs())
}

// renewDelay computes the next-fire delay while Master: fire at
// endLeaseMs - guardMs, or immediately if that point has already
// passed.
func (c *Controller) renewDelay(nowMs int64) time.Duration {
	renewAtMs := c.state.endLeaseMs - c.state.guardMs
	delayMs := renewAtMs - nowMs
	if delayMs < 0 {
		delayMs = 0
	}
	delay := time.Duration(delayMs) * time.Millisecond
	if delay > c.cfg.PollInterval {
		delay = c.cfg.PollInterval
	}
	return delay
}

// nextBackoff advances and returns the capped exponential backoff used
// after a TransportError, grounded on the retry shape of a reference
// lease-acquisition loop: start small, double, cap at the guard
// window so a retry storm can never outlast the margin the guard
// window was meant to protect.
func (c *Controller) nextBackoff() time.Duration {
	if c.backoff == 0 {
		c.backoff = initialBackoff
	} else {
		c.backoff *= 2
	}
	maxBackoff := time.Duration(c.state.guardMs) * time.Millisecond
	if c.backoff > maxBackoff {
		c.backoff = maxBackoff
	}
	return c.backoff
}

// tryAcquire attempts to become (or remain) the lease holder. Returns
// true if the attempt failed with a TransportError and must be
// retried; false means the attempt was conclusive (Ok or
// VersionMismatch), whether or not it resulted in holding the lease.
func (c *Controller) tryAcquire(ctx context.Context) (transportErr bool) {
	ctx, span := telemetry.StartLeaseSpan(ctx, telemetry.SpanLeaseAcquire, c.cfg.HostAndPort, telemetry.CSPath(c.cfg.LeasePath))
	defer span.End()

	rec, err := c.gateway.Read(ctx, c.cfg.LeasePath)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Warn("election: failed to read LEASE record", "error", err)
		return true
	}
	c.view.setHolder(rec.Payload)

	nowMs := c.clk.NowMs()

	if rec.Exists && rec.Payload != c.cfg.HostAndPort {
		// Someone else holds it. Without a TTL on the CS side,
		// liveness is inferred from local observation: only attempt
		// to take over once the version has stopped moving for a
		// full lease period, i.e. the holder has missed at least one
		// renewal window entirely.
		if !c.state.haveObservation || c.state.lastObservedVersion != rec.Version {
			c.state.haveObservation = true
			c.state.lastObservedVersion = rec.Version
			c.state.lastObservedAtMs = nowMs
			return false
		}
		if nowMs-c.state.lastObservedAtMs < c.state.leasePeriodMs {
			return false
		}
		// Stale: fall through and attempt to take over.
	}

	expectedVersion := int64(0)
	if rec.Exists {
		expectedVersion = rec.Version
	}

	newVersion, outcome, err := c.gateway.CompareAndSwap(ctx, c.cfg.LeasePath, expectedVersion, c.cfg.HostAndPort)
	telemetry.SetAttributes(ctx, telemetry.Outcome(outcome.String()))

	switch outcome {
	case coordination.Ok:
		c.metrics.RecordAcquisition(outcome.String())
		c.onAcquired(newVersion)
		return false
	case coordination.VersionMismatch:
		c.metrics.RecordAcquisition(outcome.String())
		return false
	default: // TransportError
		c.metrics.RecordAcquisition(outcome.String())
		telemetry.RecordError(ctx, err)
		logger.Warn("election: LEASE acquisition transport error", "error", err)
		return true
	}
}

// tryRenew refreshes the lease this replica already believes it
// holds. Returns true if the attempt failed with a TransportError and
// must be retried.
func (c *Controller) tryRenew(ctx context.Context) (transportErr bool) {
	ctx, span := telemetry.StartLeaseSpan(ctx, telemetry.SpanLeaseRenew, c.cfg.HostAndPort,
		telemetry.CSPath(c.cfg.LeasePath), telemetry.LeaseVersion(c.state.knownLeaseVersion))
	defer span.End()

	nowMs := c.clk.NowMs()

	newVersion, outcome, err := c.gateway.CompareAndSwap(ctx, c.cfg.LeasePath, c.state.knownLeaseVersion, c.cfg.HostAndPort)
	telemetry.SetAttributes(ctx, telemetry.Outcome(outcome.String()))

	switch outcome {
	case coordination.Ok:
		c.metrics.RecordRenewal(outcome.String())
		if nowMs > c.state.endLeaseMs {
			// The CAS succeeded, but only after the window it was meant
			// to extend had already closed: nothing else touched LEASE,
			// yet we cannot claim to have held it continuously across a
			// stall this long, so we self-demote rather than extend.
			logger.Warn("election: renewal succeeded past lease end, self-demoting", "host", c.cfg.HostAndPort)
			c.demote()
			return false
		}
		c.state.knownLeaseVersion = newVersion
		c.state.baseTimeMs = nowMs
		c.state.endLeaseMs = nowMs + c.state.leasePeriodMs
		c.view.setEndLeaseMs(c.state.endLeaseMs)
		c.view.setHolder(c.cfg.HostAndPort)
		return false

	case coordination.VersionMismatch:
		c.metrics.RecordRenewal(outcome.String())
		logger.Warn("election: lease lost, another replica holds LEASE", "host", c.cfg.HostAndPort)
		c.demote()
		return false

	default: // TransportError
		c.metrics.RecordRenewal(outcome.String())
		telemetry.RecordError(ctx, err)
		logger.Warn("election: LEASE renewal transport error", "error", err)
		if nowMs >= c.state.endLeaseMs {
			// endLeaseMs has already passed without a confirmed
			// renewal: we cannot prove we still hold the lease, so we
			// must self-demote rather than keep serving.
			logger.Warn("election: renewal could not be confirmed before lease end, self-demoting")
			c.demote()
			return false
		}
		return true
	}
}

func (c *Controller) onAcquired(newVersion int64) {
	wasHolding := c.holding
	nowMs := c.clk.NowMs()

	c.state.knownLeaseVersion = newVersion
	c.state.baseTimeMs = nowMs
	c.state.endLeaseMs = nowMs + c.state.leasePeriodMs
	c.state.haveObservation = false
	c.holding = true

	c.view.setEndLeaseMs(c.state.endLeaseMs)
	c.view.setHolder(c.cfg.HostAndPort)
	c.metrics.SetIsLeader(true)

	if !wasHolding {
		logger.Info("election: lease acquired, scheduling promotion", "host", c.cfg.HostAndPort)
		c.promQueue.Trigger()
	}
}

func (c *Controller) demote() {
	c.holding = false
	c.state.endLeaseMs = 0
	c.view.setEndLeaseMs(0)
	c.metrics.SetIsLeader(false)
}

// runPromotion is the promotion job body (C8), run on the promotion
// queue's worker goroutine: reset local serving state, then publish a
// new epoch to CURRENT.
func (c *Controller) runPromotion(ctx context.Context) {
	ctx, span := telemetry.StartLeaseSpan(ctx, telemetry.SpanPromotion, c.cfg.HostAndPort, telemetry.CSPath(c.cfg.CurrentPath))
	defer span.End()

	logger.Info("election: running promotion", "host", c.cfg.HostAndPort)

	resetCtx, resetSpan := telemetry.StartSpan(ctx, telemetry.SpanStateReset)
	newEpoch, err := c.stateManager.Reset(resetCtx)
	resetSpan.End()
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("election: state reset failed during promotion", "error", err)
		return
	}

	rec, err := c.gateway.Read(ctx, c.cfg.CurrentPath)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("election: failed to read CURRENT during promotion", "error", err)
		return
	}

	current, parseErr := ParseCurrentTSORecord(rec.Payload, rec.Version, rec.Exists)
	if parseErr != nil {
		c.panicker.Panic("malformed CURRENT record during promotion", parseErr)
		return
	}

	prevEpoch := current.Epoch

	if current.Exists && prevEpoch >= newEpoch {
		// The state collaborator minted an epoch no newer than the one
		// already published: either another replica raced ahead with a
		// newer epoch from the same source, or the source itself is
		// non-monotonic. Either way the epoch namespace is no longer
		// trustworthy.
		c.panicker.Panic("epoch did not advance", NewEpochRegressionError(prevEpoch, newEpoch))
		return
	}

	next := CurrentTSORecord{HostAndPort: c.cfg.HostAndPort, Epoch: newEpoch}
	expectedVersion := int64(0)
	if current.Exists {
		expectedVersion = current.Version
	}

	_, outcome, err := c.gateway.CompareAndSwap(ctx, c.cfg.CurrentPath, expectedVersion, next.Encode())
	telemetry.SetAttributes(ctx, telemetry.Outcome(outcome.String()), telemetry.Epoch(newEpoch))
	switch outcome {
	case coordination.Ok:
		c.view.setEpoch(newEpoch)
		c.metrics.RecordPromotion(newEpoch)
		logger.Info("election: promotion complete", "host", c.cfg.HostAndPort, "epoch", newEpoch)

		if c.ledgerRecorder != nil {
			entry := ledger.Promotion{
				Epoch:        newEpoch,
				HostAndPort:  c.cfg.HostAndPort,
				LeaseVersion: c.state.knownLeaseVersion,
			}
			if err := c.ledgerRecorder.RecordPromotion(ctx, entry); err != nil {
				logger.Warn("election: failed to record promotion in ledger", "error", err)
			}
		}

	case coordination.VersionMismatch:
		// We hold LEASE exclusively per tryAcquire/tryRenew, so a
		// rejected CURRENT write here means another replica believed
		// it also held the lease and completed its own promotion
		// concurrently: two masters existed at once.
		c.metrics.RecordSplitBrain()
		c.panicker.Panic("CURRENT publish rejected", NewSplitBrainError(prevEpoch, newEpoch))

	default: // TransportError
		logger.Error("election: CURRENT publish transport error, promotion incomplete", "error", err)
	}
}
