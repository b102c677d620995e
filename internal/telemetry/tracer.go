package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used across election spans, following OpenTelemetry
// semantic-convention naming style (dotted, lower-case namespaces).
const (
	// ========================================================================
	// Replica / lease attributes
	// ========================================================================
	AttrReplicaHost  = "replica.host_port"
	AttrLeaseVersion = "lease.version"
	AttrLeasePath    = "lease.path"
	AttrEpoch        = "lease.epoch"
	AttrOutcome      = "lease.outcome" // ok, version_mismatch, transport_error

	// ========================================================================
	// Coordination-service attributes
	// ========================================================================
	AttrCSBackend = "cs.backend" // etcd, badger, memory
	AttrCSPath    = "cs.path"

	// ========================================================================
	// API/auth attributes
	// ========================================================================
	AttrHTTPRoute  = "http.route"
	AttrAdminRole  = "auth.role"
	AttrRemoteAddr = "net.peer.addr"
)

// Span names for election operations.
const (
	SpanLeaseAcquire  = "election.acquire"
	SpanLeaseRenew    = "election.renew"
	SpanPromotion     = "election.promote"
	SpanStateReset    = "election.state_reset"
	SpanCSRead        = "cs.read"
	SpanCSCompareSwap = "cs.compare_and_swap"
	SpanCSEnsurePath  = "cs.ensure_path"
)

// ReplicaHost returns an attribute for this replica's host:port identity.
func ReplicaHost(hostAndPort string) attribute.KeyValue {
	return attribute.String(AttrReplicaHost, hostAndPort)
}

// LeaseVersion returns an attribute for a CAS version token.
func LeaseVersion(version int64) attribute.KeyValue {
	return attribute.Int64(AttrLeaseVersion, version)
}

// Epoch returns an attribute for a published TSO epoch.
func Epoch(epoch int64) attribute.KeyValue {
	return attribute.Int64(AttrEpoch, epoch)
}

// Outcome returns an attribute for a coordination.Outcome string.
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// CSBackend returns an attribute identifying the coordination-service
// backend in use (etcd, badger, memory).
func CSBackend(name string) attribute.KeyValue {
	return attribute.String(AttrCSBackend, name)
}

// CSPath returns an attribute for the coordination-service record path.
func CSPath(path string) attribute.KeyValue {
	return attribute.String(AttrCSPath, path)
}

// HTTPRoute returns an attribute for the matched chi route pattern.
func HTTPRoute(route string) attribute.KeyValue {
	return attribute.String(AttrHTTPRoute, route)
}

// AdminRole returns an attribute for the authenticated operator role.
func AdminRole(role string) attribute.KeyValue {
	return attribute.String(AttrAdminRole, role)
}

// StartLeaseSpan starts a span for a lease-controller operation
// (acquire, renew, promote), tagging it with this replica's identity.
func StartLeaseSpan(ctx context.Context, spanName, hostAndPort string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{ReplicaHost(hostAndPort)}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartCSSpan starts a span for a coordination-service gateway call.
func StartCSSpan(ctx context.Context, spanName, backend, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{CSBackend(backend), CSPath(path)}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}
