package election

import (
	"sync/atomic"

	"github.com/marmos91/tso-lease/internal/clock"
)

// View is the read side of the lease state, consumed by the serving
// path on every request. InLeasePeriod must never block and must
// never take a lock: it is called far more often than the lease is
// renewed, so it is backed by a single atomic int64 written only by
// the Controller's scheduler goroutine.
type View struct {
	endLeaseMs atomic.Int64
	epoch      atomic.Int64
	holder     atomic.Pointer[string]
	clk        clock.Clock
}

func newView(clk clock.Clock) *View {
	v := &View{clk: clk}
	empty := ""
	v.holder.Store(&empty)
	return v
}

// InLeasePeriod reports whether, as of this call, the local process
// may still act as master. It is the only predicate the serving path
// should consult; it is wait-free and safe to call from any number of
// goroutines concurrently.
func (v *View) InLeasePeriod() bool {
	return v.clk.NowMs() < v.endLeaseMs.Load()
}

// IsLeader is sugar over InLeasePeriod for call sites that read better
// in leadership terms.
func (v *View) IsLeader() bool {
	return v.InLeasePeriod()
}

// CurrentEpoch returns the last epoch this replica published during a
// promotion, or 0 if it has never been promoted.
func (v *View) CurrentEpoch() int64 {
	return v.epoch.Load()
}

// LeaseHolder returns the last known LEASE payload observed by the
// controller. It is best-effort and racy by nature (another replica
// may have already taken over); it exists for status reporting only
// and must never be used for a correctness decision.
func (v *View) LeaseHolder() string {
	p := v.holder.Load()
	if p == nil {
		return ""
	}
	return *p
}

func (v *View) setEndLeaseMs(ms int64) {
	v.endLeaseMs.Store(ms)
}

func (v *View) setEpoch(epoch int64) {
	v.epoch.Store(epoch)
}

func (v *View) setHolder(hostAndPort string) {
	v.holder.Store(&hostAndPort)
}
