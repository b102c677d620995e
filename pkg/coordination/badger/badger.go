// Package badger implements a coordination.Gateway backed by an
// embedded BadgerDB instance, for single-node development and test
// deployments of the election core.
package badger

import (
	"context"
	"encoding/binary"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/internal/telemetry"
	"github.com/marmos91/tso-lease/pkg/coordination"
)

const backendName = "badger"

// Gateway implements coordination.Gateway over a single BadgerDB
// instance. Versions are stored as an 8-byte big-endian prefix ahead
// of the payload so a single key holds both.
type Gateway struct {
	db *badgerdb.DB
}

// Open opens (creating if necessary) a BadgerDB instance at dir and
// returns a Gateway over it.
func Open(dir string) (*Gateway, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger coordination store: %w", err)
	}
	return &Gateway{db: db}, nil
}

// Close releases the underlying BadgerDB instance.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) EnsurePath(ctx context.Context, path string) error {
	ctx, span := telemetry.StartCSSpan(ctx, telemetry.SpanCSEnsurePath, backendName, path)
	defer span.End()

	if err := ctx.Err(); err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	return g.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(path))
		if err == nil {
			return nil
		}
		if err != badgerdb.ErrKeyNotFound {
			return err
		}
		return txn.Set([]byte(path), encodeVersioned(0, ""))
	})
}

func (g *Gateway) Read(ctx context.Context, path string) (coordination.Record, error) {
	ctx, span := telemetry.StartCSSpan(ctx, telemetry.SpanCSRead, backendName, path)
	defer span.End()

	if err := ctx.Err(); err != nil {
		telemetry.RecordError(ctx, err)
		return coordination.Record{}, err
	}

	rec := coordination.Record{Path: path}
	err := g.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			version, payload, decErr := decodeVersioned(val)
			if decErr != nil {
				return decErr
			}
			rec.Version = version
			rec.Payload = payload
			rec.Exists = true
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return coordination.Record{}, fmt.Errorf("read %s: %w", path, err)
	}
	return rec, nil
}

func (g *Gateway) CompareAndSwap(ctx context.Context, path string, expectedVersion int64, payload string) (int64, coordination.Outcome, error) {
	ctx, span := telemetry.StartCSSpan(ctx, telemetry.SpanCSCompareSwap, backendName, path, telemetry.LeaseVersion(expectedVersion))
	defer span.End()

	if err := ctx.Err(); err != nil {
		telemetry.RecordError(ctx, err)
		return 0, coordination.TransportError, err
	}

	var newVersion int64
	var outcome coordination.Outcome

	err := g.db.Update(func(txn *badgerdb.Txn) error {
		current := int64(0)
		item, err := txn.Get([]byte(path))
		switch {
		case err == nil:
			var decErr error
			current, _, decErr = decodeVersionedFromItem(item)
			if decErr != nil {
				return decErr
			}
		case err == badgerdb.ErrKeyNotFound:
			current = 0
		default:
			return err
		}

		if current != expectedVersion {
			outcome = coordination.VersionMismatch
			return nil
		}

		newVersion = current + 1
		outcome = coordination.Ok
		return txn.Set([]byte(path), encodeVersioned(newVersion, payload))
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Warn("badger CAS transport error", "path", path, "error", err)
		return 0, coordination.TransportError, fmt.Errorf("compare-and-swap %s: %w", path, err)
	}

	telemetry.SetAttributes(ctx, telemetry.Outcome(outcome.String()))
	return newVersion, outcome, nil
}

func encodeVersioned(version int64, payload string) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(buf[:8], uint64(version))
	copy(buf[8:], payload)
	return buf
}

func decodeVersioned(val []byte) (int64, string, error) {
	if len(val) < 8 {
		return 0, "", fmt.Errorf("corrupt coordination record: %d bytes", len(val))
	}
	version := int64(binary.BigEndian.Uint64(val[:8]))
	return version, string(val[8:]), nil
}

func decodeVersionedFromItem(item *badgerdb.Item) (int64, string, error) {
	var version int64
	var payload string
	err := item.Value(func(val []byte) error {
		v, p, decErr := decodeVersioned(val)
		if decErr != nil {
			return decErr
		}
		version = v
		payload = p
		return nil
	})
	return version, payload, err
}
