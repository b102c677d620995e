package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	return s
}

func TestRecordAndRecentPromotions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordPromotion(ctx, Promotion{Epoch: 1, HostAndPort: "10.0.0.1:9090", LeaseVersion: 1}))
	require.NoError(t, s.RecordPromotion(ctx, Promotion{Epoch: 2, HostAndPort: "10.0.0.2:9090", LeaseVersion: 5}))

	rows, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].Epoch)
	assert.Equal(t, int64(1), rows[1].Epoch)

	latest, err := s.LatestEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest)
}

func TestLatestEpochEmptyLedger(t *testing.T) {
	s := openTestStore(t)
	latest, err := s.LatestEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)
}

func TestStoreClose(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.LatestEpoch(context.Background())
	assert.Error(t, err)
}

func TestRecordPromotionDuplicateEpochRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordPromotion(ctx, Promotion{Epoch: 1, HostAndPort: "10.0.0.1:9090"}))
	err := s.RecordPromotion(ctx, Promotion{Epoch: 1, HostAndPort: "10.0.0.2:9090"})
	assert.Error(t, err)
}

func TestMemoryRecorder(t *testing.T) {
	m := NewMemoryRecorder()
	ctx := context.Background()

	require.NoError(t, m.RecordPromotion(ctx, Promotion{Epoch: 1, HostAndPort: "10.0.0.1:9090"}))
	require.NoError(t, m.RecordPromotion(ctx, Promotion{Epoch: 2, HostAndPort: "10.0.0.1:9090"}))

	rows := m.Promotions()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Epoch)
}
