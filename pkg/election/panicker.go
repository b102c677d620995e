package election

import (
	"fmt"
	"sync"

	"github.com/marmos91/tso-lease/internal/logger"
)

// Panicker is the last line of defense against running as two masters
// at once: anything unrecoverable (split brain, epoch regression, a
// malformed CS record) is routed through it instead of a bare panic()
// call, so tests can observe the failure instead of crashing the test
// binary.
type Panicker interface {
	Panic(reason string, err error)
}

// RealPanicker logs the fatal condition and then panics, crashing the
// process. This is the only Panicker a production replica should use:
// a replica that cannot prove it isn't double-mastering must stop
// serving immediately.
type RealPanicker struct{}

func (RealPanicker) Panic(reason string, err error) {
	logger.Error("election: fatal condition, terminating process", "reason", reason, "error", err)
	panic(fmt.Sprintf("%s: %v", reason, err))
}

// RecordingPanicker captures Panic calls instead of crashing, for use
// in tests that need to assert a panic path was taken.
type RecordingPanicker struct {
	mu      sync.Mutex
	reasons []string
	errs    []error
}

func (p *RecordingPanicker) Panic(reason string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reasons = append(p.reasons, reason)
	p.errs = append(p.errs, err)
}

// Called reports whether Panic has been invoked at least once.
func (p *RecordingPanicker) Called() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reasons) > 0
}

// Last returns the most recent Panic call's arguments, or ("", nil) if
// Panic has never been called.
func (p *RecordingPanicker) Last() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reasons) == 0 {
		return "", nil
	}
	return p.reasons[len(p.reasons)-1], p.errs[len(p.errs)-1]
}
