package election

import (
	"fmt"
	"strconv"
	"strings"
)

// LeaseRecord is the decoded payload of the coordination.LeasePath
// record: the host:port of whichever replica currently holds the
// lease. Version is the CAS token returned alongside it, not part of
// the payload itself.
type LeaseRecord struct {
	HostAndPort string
	Version     int64
	Exists      bool
}

// CurrentTSORecord is the decoded payload of the coordination.CurrentPath
// record: the host:port and epoch of the replica that last completed a
// promotion.
type CurrentTSORecord struct {
	HostAndPort string
	Epoch       int64
	Version     int64
	Exists      bool
}

// Encode renders the CurrentTSORecord payload as "<host:port>#<epoch>".
func (r CurrentTSORecord) Encode() string {
	return fmt.Sprintf("%s#%d", r.HostAndPort, r.Epoch)
}

// ParseCurrentTSORecord parses a "<host:port>#<epoch>" payload. An
// empty payload (never published) decodes to epoch 0 and an empty
// host, which is a valid starting point for the first promotion ever.
func ParseCurrentTSORecord(payload string, version int64, exists bool) (CurrentTSORecord, error) {
	if payload == "" {
		return CurrentTSORecord{Epoch: 0, Version: version, Exists: exists}, nil
	}

	idx := strings.LastIndex(payload, "#")
	if idx < 0 {
		return CurrentTSORecord{}, NewParseError(fmt.Sprintf("malformed CURRENT payload %q: missing epoch separator", payload))
	}

	hostAndPort := payload[:idx]
	epochStr := payload[idx+1:]
	epoch, err := strconv.ParseInt(epochStr, 10, 64)
	if err != nil {
		return CurrentTSORecord{}, NewParseError(fmt.Sprintf("malformed CURRENT payload %q: invalid epoch: %v", payload, err))
	}

	return CurrentTSORecord{
		HostAndPort: hostAndPort,
		Epoch:       epoch,
		Version:     version,
		Exists:      exists,
	}, nil
}

// LocalLeaseState is the controller's private view of lease state: the
// only copy consulted by tryAcquire/tryRenew, and the only writer of
// the atomic fields read by View.
type LocalLeaseState struct {
	// knownLeaseVersion is the CAS version last observed or written
	// for the LEASE record.
	knownLeaseVersion int64

	// baseTimeMs is the local clock reading at which the current
	// lease term (acquisition or last successful renewal) began.
	baseTimeMs int64

	// endLeaseMs is the local-clock deadline beyond which this
	// replica must no longer consider itself the leader: the start of
	// the current term plus leasePeriodMs, with no guard window
	// subtracted. Read by View via atomic load.
	endLeaseMs int64

	// leasePeriodMs is the configured lease duration.
	leasePeriodMs int64

	// guardMs is leasePeriodMs/4, subtracted from renewal deadlines
	// so a slow CS round trip can never let the lease silently expire
	// before a renewal attempt is even made.
	guardMs int64

	// hostAndPort identifies this replica in LEASE and CURRENT
	// payloads.
	hostAndPort string

	// lastObservedVersion/lastObservedAtMs track, for a non-holder,
	// the last LEASE version it saw and when it first saw it. The CS
	// Gateway has no TTL concept of its own, so liveness of another
	// replica's lease is inferred locally: if the version has not
	// moved for a full leasePeriodMs since it was first observed, the
	// holder is presumed gone and this replica may attempt to take
	// over.
	lastObservedVersion int64
	lastObservedAtMs    int64
	haveObservation     bool
}

// newLocalLeaseState builds the initial (unheld) state for a replica.
func newLocalLeaseState(hostAndPort string, leasePeriodMs int64) LocalLeaseState {
	return LocalLeaseState{
		knownLeaseVersion: 0,
		baseTimeMs:        0,
		endLeaseMs:        0,
		leasePeriodMs:     leasePeriodMs,
		guardMs:           leasePeriodMs / 4,
		hostAndPort:       hostAndPort,
	}
}
