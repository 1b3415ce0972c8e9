// Package cache keeps the latest aggregate series per run in Redis so the
// HTTP API can serve charts without hitting Postgres on every poll.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sameer-vaidya/marketbuzz/models"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{client: client, ttl: ttl}, nil
}

func windowsKey(runID string) string { return "signals:" + runID }

// SetWindows stores a run's aggregate series.
func (c *Cache) SetWindows(ctx context.Context, runID string, windows []models.AggregateWindow) error {
	payload, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("encoding windows: %w", err)
	}
	if err := c.client.Set(ctx, windowsKey(runID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching windows for run %s: %w", runID, err)
	}
	return nil
}

// GetWindows fetches a cached series; ok is false on a miss.
func (c *Cache) GetWindows(ctx context.Context, runID string) ([]models.AggregateWindow, bool, error) {
	payload, err := c.client.Get(ctx, windowsKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached windows for run %s: %w", runID, err)
	}
	var windows []models.AggregateWindow
	if err := json.Unmarshal(payload, &windows); err != nil {
		return nil, false, fmt.Errorf("decoding cached windows for run %s: %w", runID, err)
	}
	return windows, true, nil
}

// Close releases the client.
func (c *Cache) Close() error { return c.client.Close() }
