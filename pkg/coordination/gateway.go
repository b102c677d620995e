// Package coordination defines the CS Gateway: the boundary between the
// election core and whatever linearisable coordination service backs
// the LEASE and CURRENT records (etcd, an embedded Badger instance, or
// an in-memory fake for tests).
package coordination

import "context"

// Default record paths, used when election.Config leaves LeasePath or
// CurrentPath unset.
const (
	LeasePath   = "/omid/tso-lease"
	CurrentPath = "/omid/current-tso"
)

// Outcome classifies the result of a CompareAndSwap attempt. The
// election core branches on this instead of inspecting error values,
// since VersionMismatch and TransportError drive materially different
// state transitions (quiet demote vs retry).
type Outcome int

const (
	// Ok means the write succeeded and is now linearised.
	Ok Outcome = iota
	// VersionMismatch means the write was rejected because the
	// expected version did not match the current one.
	VersionMismatch
	// TransportError means the write could not be confirmed one way
	// or the other (timeout, connection failure, etc). The caller must
	// retry; it must not assume success or failure.
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case VersionMismatch:
		return "version_mismatch"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Record is a single versioned value read from the CS.
type Record struct {
	Path    string
	Payload string
	// Version is the CAS token: an opaque value that must be supplied
	// unchanged to CompareAndSwap for the write to succeed, and is
	// itself opaque to everything above this package.
	Version int64
	// Exists is false when the path has never been written.
	Exists bool
}

// Gateway is the CS boundary consumed by the election core.
type Gateway interface {
	// EnsurePath creates path if it does not already exist, as an
	// empty record with version 0. It is idempotent.
	EnsurePath(ctx context.Context, path string) error

	// Read returns the current record at path.
	Read(ctx context.Context, path string) (Record, error)

	// CompareAndSwap writes payload to path if and only if the
	// record's current version equals expectedVersion, and returns
	// the new version on success. The returned Outcome is Ok,
	// VersionMismatch, or TransportError; a non-nil error accompanies
	// TransportError (and only TransportError) to carry the transport
	// failure detail.
	CompareAndSwap(ctx context.Context, path string, expectedVersion int64, payload string) (newVersion int64, outcome Outcome, err error)
}
