// Package store persists the last-known-good performance snapshot so a
// restarted console can show recent metrics, marked stale, before its first
// poll completes. The in-memory store is the default; Redis is used when an
// address is configured.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/pythia-trading/pythia-console/internal/config"
	"github.com/pythia-trading/pythia-console/internal/models"
)

const snapshotKey = "pythia:console:last_snapshot"

// SnapshotStore saves and restores the most recent snapshot.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *models.PerformanceSnapshot) error
	Load(ctx context.Context) (*models.PerformanceSnapshot, bool, error)
}

// FromConfig selects Redis when an address is configured, memory otherwise.
func FromConfig(cfg config.StoreConfig) SnapshotStore {
	ttl := time.Duration(cfg.TTLSecs) * time.Second
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedis(client, ttl)
	}
	return NewMemory(ttl)
}

// Memory keeps the encoded snapshot in process.
type Memory struct {
	ttl time.Duration

	mu   sync.Mutex
	data []byte
	exp  time.Time
}

// NewMemory builds an in-process store. A zero ttl keeps snapshots forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl}
}

// Save replaces the stored snapshot.
func (m *Memory) Save(_ context.Context, snapshot *models.PerformanceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	if m.ttl > 0 {
		m.exp = time.Now().Add(m.ttl)
	}
	return nil
}

// Load returns the stored snapshot, reporting false when none is present
// or the retention window has passed.
func (m *Memory) Load(_ context.Context) (*models.PerformanceSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil || (!m.exp.IsZero() && time.Now().After(m.exp)) {
		return nil, false, nil
	}

	var snapshot models.PerformanceSnapshot
	if err := json.Unmarshal(m.data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// Redis persists the snapshot across console restarts.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Save replaces the stored snapshot under the console's key.
func (r *Redis) Save(ctx context.Context, snapshot *models.PerformanceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot; a missing key is not an error.
func (r *Redis) Load(ctx context.Context) (*models.PerformanceSnapshot, bool, error) {
	data, err := r.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.PerformanceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, true, nil
}
