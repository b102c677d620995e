// Package etcd implements a coordination.Gateway backed by etcd,
// the production CS backend for multi-node deployments.
package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/internal/telemetry"
	"github.com/marmos91/tso-lease/pkg/coordination"
)

const backendName = "etcd"

// Config configures the etcd client underlying a Gateway.
type Config struct {
	Endpoints   []string
	DialTimeout time.Duration
	Username    string
	Password    string
}

// Gateway implements coordination.Gateway over an etcd cluster. It
// uses mod-revision as the CAS version: etcd's own per-key revision
// counter, which increases monotonically on every write and is
// exactly the semantics LocalLeaseState.knownLeaseVersion needs.
type Gateway struct {
	client *clientv3.Client
}

// Open dials the configured etcd endpoints and returns a Gateway.
func Open(cfg Config) (*Gateway, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("dial etcd: %w", err)
	}

	return &Gateway{client: client}, nil
}

// Close releases the underlying etcd client.
func (g *Gateway) Close() error {
	return g.client.Close()
}

func (g *Gateway) EnsurePath(ctx context.Context, path string) error {
	ctx, span := telemetry.StartCSSpan(ctx, telemetry.SpanCSEnsurePath, backendName, path)
	defer span.End()

	_, err := g.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(path), "=", 0)).
		Then(clientv3.OpPut(path, "")).
		Commit()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("ensure path %s: %w", path, err)
	}
	return nil
}

func (g *Gateway) Read(ctx context.Context, path string) (coordination.Record, error) {
	ctx, span := telemetry.StartCSSpan(ctx, telemetry.SpanCSRead, backendName, path)
	defer span.End()

	resp, err := g.client.Get(ctx, path)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return coordination.Record{}, fmt.Errorf("read %s: %w", path, err)
	}

	if len(resp.Kvs) == 0 {
		return coordination.Record{Path: path}, nil
	}

	kv := resp.Kvs[0]
	return coordination.Record{
		Path:    path,
		Payload: string(kv.Value),
		Version: kv.ModRevision,
		Exists:  true,
	}, nil
}

func (g *Gateway) CompareAndSwap(ctx context.Context, path string, expectedVersion int64, payload string) (int64, coordination.Outcome, error) {
	ctx, span := telemetry.StartCSSpan(ctx, telemetry.SpanCSCompareSwap, backendName, path, telemetry.LeaseVersion(expectedVersion))
	defer span.End()

	txn := g.client.Txn(ctx)

	var cmp clientv3.Cmp
	if expectedVersion == 0 {
		// Unwritten key: mod revision of a never-written key is 0.
		cmp = clientv3.Compare(clientv3.ModRevision(path), "=", 0)
	} else {
		cmp = clientv3.Compare(clientv3.ModRevision(path), "=", expectedVersion)
	}

	resp, err := txn.If(cmp).Then(clientv3.OpPut(path, payload)).Commit()
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Warn("etcd CAS transport error", "path", path, "error", err)
		return 0, coordination.TransportError, fmt.Errorf("compare-and-swap %s: %w", path, err)
	}

	if !resp.Succeeded {
		telemetry.SetAttributes(ctx, telemetry.Outcome(coordination.VersionMismatch.String()))
		return 0, coordination.VersionMismatch, nil
	}

	telemetry.SetAttributes(ctx, telemetry.Outcome(coordination.Ok.String()))
	return resp.Header.Revision, coordination.Ok, nil
}
