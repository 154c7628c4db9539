package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythia-trading/pythia-console/internal/config"
	"github.com/pythia-trading/pythia-console/internal/models"
)

func testSnapshot(pnl float64) *models.PerformanceSnapshot {
	return &models.PerformanceSnapshot{
		Summary:   models.Summary{TotalPnL: &pnl},
		Timestamp: "2025-01-15T10:30:00Z",
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Save(ctx, testSnapshot(12.34)))

	loaded, ok, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.34, *loaded.Summary.TotalPnL)
	assert.Equal(t, "2025-01-15T10:30:00Z", loaded.Timestamp)
}

func TestMemoryLoadsAreIndependent(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, testSnapshot(1)))

	first, _, err := m.Load(ctx)
	require.NoError(t, err)
	*first.Summary.TotalPnL = -99

	second, _, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, *second.Summary.TotalPnL)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, testSnapshot(1)))

	time.Sleep(25 * time.Millisecond)

	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSave(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedis(client, time.Hour)

	snapshot := testSnapshot(12.34)
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	mock.ExpectSet(snapshotKey, data, time.Hour).SetVal("OK")

	require.NoError(t, r.Save(context.Background(), snapshot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLoad(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedis(client, time.Hour)

	data, err := json.Marshal(testSnapshot(12.34))
	require.NoError(t, err)
	mock.ExpectGet(snapshotKey).SetVal(string(data))

	loaded, ok, err := r.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.34, *loaded.Summary.TotalPnL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLoadMissingKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedis(client, time.Hour)

	mock.ExpectGet(snapshotKey).RedisNil()

	snapshot, ok, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snapshot)
}

func TestRedisLoadCorruptPayload(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedis(client, time.Hour)

	mock.ExpectGet(snapshotKey).SetVal("{not json")

	_, ok, err := r.Load(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "decode")
}

func TestFromConfigSelectsMemoryByDefault(t *testing.T) {
	s := FromConfig(config.StoreConfig{TTLSecs: 60})
	assert.IsType(t, &Memory{}, s)
}

func TestFromConfigSelectsRedisWhenAddressed(t *testing.T) {
	s := FromConfig(config.StoreConfig{RedisAddr: "localhost:6379"})
	assert.IsType(t, &Redis{}, s)
}
