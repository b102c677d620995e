// Package memory implements an in-process coordination.Gateway fake,
// used by unit tests that exercise the election core without a real
// coordination service.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/tso-lease/pkg/coordination"
)

// Gateway is a mutex-guarded map standing in for a linearisable CS.
// Safe for concurrent use.
type Gateway struct {
	mu      sync.Mutex
	records map[string]coordination.Record

	// FailTransport, when set, makes every CompareAndSwap fail with a
	// transport error instead of touching records; EnsurePath and Read
	// are unaffected. Tests flip this to simulate an outage.
	FailTransport bool
}

// New returns an empty Gateway.
func New() *Gateway {
	return &Gateway{records: make(map[string]coordination.Record)}
}

func (g *Gateway) EnsurePath(ctx context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.records[path]; ok {
		return nil
	}
	g.records[path] = coordination.Record{Path: path, Version: 0, Exists: false}
	return nil
}

func (g *Gateway) Read(ctx context.Context, path string) (coordination.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[path]
	if !ok {
		return coordination.Record{Path: path}, nil
	}
	return rec, nil
}

func (g *Gateway) CompareAndSwap(ctx context.Context, path string, expectedVersion int64, payload string) (int64, coordination.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailTransport {
		return 0, coordination.TransportError, errTransport
	}

	rec, ok := g.records[path]
	current := int64(0)
	if ok {
		current = rec.Version
	}

	if current != expectedVersion {
		return 0, coordination.VersionMismatch, nil
	}

	newVersion := current + 1
	g.records[path] = coordination.Record{
		Path:    path,
		Payload: payload,
		Version: newVersion,
		Exists:  true,
	}
	return newVersion, coordination.Ok, nil
}

var errTransport = transportErr("simulated transport failure")

type transportErr string

func (e transportErr) Error() string { return string(e) }
