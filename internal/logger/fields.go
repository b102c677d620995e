package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys
// consistently across all log statements for log aggregation and
// querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Election
	// ========================================================================
	KeyOperation    = "operation"     // Election operation: acquire, renew, promote, demote
	KeyReplicaHost  = "replica"       // host:port identity of this replica
	KeyLeasePath    = "lease_path"    // Coordination service path (LEASE, CURRENT)
	KeyLeaseVersion = "lease_version" // CAS version/token of the lease record
	KeyEpoch        = "epoch"         // Monotonic promotion epoch
	KeyOutcome      = "outcome"       // CS Gateway outcome: ok, version_mismatch, transport_error
	KeyAttempt      = "attempt"       // Retry attempt number
	KeyBackoffMs    = "backoff_ms"    // Backoff delay before the next retry

	// ========================================================================
	// Coordination Service
	// ========================================================================
	KeyCSBackend = "cs_backend" // Coordination service backend: etcd, badger, memory

	// ========================================================================
	// HTTP / API
	// ========================================================================
	KeyHTTPMethod = "method"     // HTTP method
	KeyHTTPPath   = "path"       // HTTP request path
	KeyHTTPStatus = "status"     // HTTP response status code
	KeyRemoteAddr = "remote_addr" // Client remote address
	KeyRequestID  = "request_id" // Per-request correlation ID

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the election operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ReplicaHost returns a slog.Attr for this replica's host:port identity.
func ReplicaHost(hostAndPort string) slog.Attr {
	return slog.String(KeyReplicaHost, hostAndPort)
}

// LeasePath returns a slog.Attr for a coordination service record path.
func LeasePath(path string) slog.Attr {
	return slog.String(KeyLeasePath, path)
}

// LeaseVersion returns a slog.Attr for a lease record's CAS version.
func LeaseVersion(version int64) slog.Attr {
	return slog.Int64(KeyLeaseVersion, version)
}

// Epoch returns a slog.Attr for the current promotion epoch.
func Epoch(epoch int64) slog.Attr {
	return slog.Int64(KeyEpoch, epoch)
}

// Outcome returns a slog.Attr for a CS Gateway call outcome.
func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// BackoffMs returns a slog.Attr for the backoff delay before the next retry.
func BackoffMs(ms int64) slog.Attr {
	return slog.Int64(KeyBackoffMs, ms)
}

// CSBackend returns a slog.Attr for the coordination service backend name.
func CSBackend(backend string) slog.Attr {
	return slog.String(KeyCSBackend, backend)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
