package election

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/tso-lease/internal/clock"
	"github.com/marmos91/tso-lease/pkg/coordination"
	"github.com/marmos91/tso-lease/pkg/coordination/memory"
)

func newTestController(t *testing.T, hostAndPort string, gw coordination.Gateway, clk *clock.Fake) (*Controller, *RecordingPanicker) {
	t.Helper()
	panicker := &RecordingPanicker{}
	cfg := Config{
		HostAndPort: hostAndPort,
		LeasePeriod: 4 * time.Second,
	}
	c := NewController(gw, clk, &NoopStateManager{}, panicker, nil, cfg)
	require.NoError(t, c.Setup(context.Background()))
	return c, panicker
}

// S1: cold start. A single replica with no prior LEASE record
// acquires it on the first cycle and completes a promotion.
func TestControllerColdStart(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	delay := c.runCycle(ctx)

	assert.True(t, c.holding)
	assert.True(t, c.View().InLeasePeriod())
	assert.Greater(t, delay, time.Duration(0))

	c.runPromotion(ctx)

	assert.False(t, panicker.Called())
	assert.Equal(t, int64(1), c.View().CurrentEpoch())

	rec, err := gw.Read(ctx, coordination.CurrentPath)
	require.NoError(t, err)
	assert.Contains(t, rec.Payload, "10.0.0.1:9090#1")
}

// S2: steady-state renewal. After acquisition, advancing the clock up
// to endLeaseMs - guardMs causes a renewal that extends endLeaseMs by
// a full lease period from the renewal instant.
func TestControllerSteadyStateRenewal(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, _ := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	c.runCycle(ctx)
	c.runPromotion(ctx)

	firstEnd := c.state.endLeaseMs

	clk.Advance(3100 * time.Millisecond) // past endLeaseMs - guardMs(1000) = firstEnd - 1000

	c.runCycle(ctx)

	assert.True(t, c.holding)
	assert.Equal(t, firstEnd+3100, c.state.endLeaseMs) // renewed at +3100ms, endLeaseMs = now + leasePeriodMs
	assert.Greater(t, c.state.endLeaseMs, firstEnd)
	assert.True(t, c.View().InLeasePeriod())
}

// S3: failover. Replica B only takes over once A's LEASE version has
// been stale for a full lease period (A stopped renewing).
func TestControllerFailover(t *testing.T) {
	gw := memory.New()
	clkA := clock.NewFake(time.Unix(1_700_000_000, 0))
	clkB := clock.NewFake(time.Unix(1_700_000_000, 0))

	a, _ := newTestController(t, "10.0.0.1:9090", gw, clkA)
	b, _ := newTestController(t, "10.0.0.2:9090", gw, clkB)

	ctx := context.Background()
	a.runCycle(ctx)
	a.runPromotion(ctx)
	require.True(t, a.holding)

	// B observes A's version but it hasn't gone stale yet.
	b.runCycle(ctx)
	assert.False(t, b.holding)

	// A crashes (stops renewing). B's clock advances past a full
	// lease period since its first observation.
	clkB.Advance(5 * time.Second)
	b.runCycle(ctx)

	assert.True(t, b.holding)
	assert.True(t, b.View().InLeasePeriod())
}

// S4: version-mismatch demotion. If another replica wins a race to
// CAS the LEASE record, this controller must quietly demote rather
// than panic.
func TestControllerVersionMismatchDemotesQuietly(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	c.runCycle(ctx)
	c.runPromotion(ctx)
	require.True(t, c.holding)

	// Simulate another replica stealing the lease out from under us:
	// directly overwrite LEASE with a version our controller doesn't
	// know about.
	_, outcome, err := gw.CompareAndSwap(ctx, coordination.LeasePath, c.state.knownLeaseVersion, "10.0.0.2:9090")
	require.NoError(t, err)
	require.Equal(t, coordination.Ok, outcome)

	clk.Advance(3100 * time.Millisecond) // past endLeaseMs - guardMs, so a renewal is attempted
	c.runCycle(ctx)

	assert.False(t, c.holding)
	assert.False(t, c.View().InLeasePeriod())
	assert.False(t, panicker.Called())
}

// S5: long pause self-demote. A transport error that persists past
// endLeaseMs itself forces a self-demotion even without an explicit
// VersionMismatch.
func TestControllerLongPauseSelfDemote(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	c.runCycle(ctx)
	c.runPromotion(ctx)
	require.True(t, c.holding)

	gw.FailTransport = true
	clk.Advance(4 * time.Second) // exactly endLeaseMs (leasePeriodMs after acquire)

	c.runCycle(ctx)

	assert.False(t, c.holding)
	assert.False(t, c.View().InLeasePeriod())
	assert.False(t, panicker.Called())
}

// A rejected CURRENT write during promotion (another replica completed
// its own promotion concurrently) panics as split brain rather than
// silently retrying.
func TestControllerSplitBrainOnCurrentVersionMismatch(t *testing.T) {
	gw := &racingGateway{Gateway: memory.New()}
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	c.runCycle(ctx)
	require.True(t, c.holding)

	// Race another write onto CURRENT between the controller's read and
	// its own CAS, simulating a concurrent promotion by another replica.
	gw.raceOnCurrentRead = true
	c.runPromotion(ctx)
	require.NoError(t, gw.raceErr)
	require.Equal(t, coordination.Ok, gw.raceOutcome)

	assert.True(t, panicker.Called())
	reason, _ := panicker.Last()
	assert.Contains(t, reason, "CURRENT publish rejected")
}

// racingGateway writes a competing CURRENT record right after a read of
// CURRENT returns, so the reader's subsequent CAS sees a newer version.
type racingGateway struct {
	*memory.Gateway
	raceOnCurrentRead bool
	raceOutcome       coordination.Outcome
	raceErr           error
}

func (g *racingGateway) Read(ctx context.Context, path string) (coordination.Record, error) {
	rec, err := g.Gateway.Read(ctx, path)
	if err == nil && path == coordination.CurrentPath && g.raceOnCurrentRead {
		g.raceOnCurrentRead = false
		_, g.raceOutcome, g.raceErr = g.Gateway.CompareAndSwap(ctx, path, rec.Version, "10.0.0.9:9090#1")
	}
	return rec, err
}

// A renewal CAS that succeeds only after endLeaseMs has already passed
// must still self-demote: nothing else touched LEASE, but the process
// stalled long enough that it cannot claim to have held the lease
// continuously across the gap.
func TestControllerRenewalSucceedsPastLeaseEndSelfDemotes(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	c.runCycle(ctx)
	c.runPromotion(ctx)
	require.True(t, c.holding)

	clk.Advance(5 * time.Second) // past endLeaseMs (4s after acquire)

	transportErr := c.tryRenew(ctx)

	assert.False(t, transportErr)
	assert.False(t, c.holding)
	assert.False(t, c.View().InLeasePeriod())
	assert.False(t, panicker.Called())
}

// S6: the state collaborator mints an epoch no newer than the one
// already published. The promotion job must panic rather than publish
// a regressed epoch.
func TestControllerEpochRegressionPanics(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))

	_, outcome, err := gw.CompareAndSwap(context.Background(), coordination.CurrentPath, 0, "X:1#42")
	require.NoError(t, err)
	require.Equal(t, coordination.Ok, outcome)

	panicker := &RecordingPanicker{}
	cfg := Config{HostAndPort: "10.0.0.1:9090", LeasePeriod: 4 * time.Second}
	c := NewController(gw, clk, regressingStateManager{epoch: 40}, panicker, nil, cfg)
	require.NoError(t, c.Setup(context.Background()))

	ctx := context.Background()
	c.runCycle(ctx)
	require.True(t, c.holding)

	c.runPromotion(ctx)

	assert.True(t, panicker.Called())
	reason, _ := panicker.Last()
	assert.Contains(t, reason, "epoch did not advance")

	rec, err := gw.Read(ctx, coordination.CurrentPath)
	require.NoError(t, err)
	assert.Equal(t, "X:1#42", string(rec.Payload))
}

type regressingStateManager struct {
	epoch int64
}

func (r regressingStateManager) Reset(ctx context.Context) (int64, error) {
	return r.epoch, nil
}

// S7: transport flakiness while deciding the next fire computes a
// capped backoff instead of busy-looping or panicking.
func TestControllerBackoffOnTransportError(t *testing.T) {
	gw := memory.New()
	gw.FailTransport = true
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	d1 := c.runCycle(ctx)
	d2 := c.runCycle(ctx)

	assert.False(t, c.holding)
	assert.False(t, panicker.Called())
	assert.Greater(t, d2, time.Duration(0))
	assert.LessOrEqual(t, d1, time.Duration(c.state.guardMs)*time.Millisecond)
	assert.LessOrEqual(t, d2, time.Duration(c.state.guardMs)*time.Millisecond)
}

// S8: voluntary step-down releases the lease without a version
// mismatch or panic.
func TestControllerVoluntaryStepDown(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	c, panicker := newTestController(t, "10.0.0.1:9090", gw, clk)

	ctx := context.Background()
	c.runCycle(ctx)
	c.runPromotion(ctx)
	require.True(t, c.holding)

	c.RequestStepDown()
	c.runCycle(ctx)

	assert.False(t, c.holding)
	assert.False(t, c.View().InLeasePeriod())
	assert.False(t, panicker.Called())
}

// S9: a ledger-style failure downstream of promotion must not be able
// to un-publish CURRENT; the promotion job itself has no ledger
// dependency, so this exercises that StateManager errors abort before
// any CS write, rather than after.
func TestControllerStateManagerFailureAbortsBeforePublish(t *testing.T) {
	gw := memory.New()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))

	panicker := &RecordingPanicker{}
	cfg := Config{HostAndPort: "10.0.0.1:9090", LeasePeriod: 4 * time.Second}
	c := NewController(gw, clk, &failingStateManager{}, panicker, nil, cfg)
	require.NoError(t, c.Setup(context.Background()))

	ctx := context.Background()
	c.runCycle(ctx)
	require.True(t, c.holding)

	c.runPromotion(ctx)

	rec, err := gw.Read(ctx, coordination.CurrentPath)
	require.NoError(t, err)
	assert.False(t, rec.Exists)
	assert.False(t, panicker.Called())
}

type failingStateManager struct{}

func (*failingStateManager) Reset(ctx context.Context) (int64, error) {
	return 0, assertErr
}

var assertErr = errTest("state reset failed")

type errTest string

func (e errTest) Error() string { return string(e) }
