// Package redis caches the prepared dashboard view so repeated dashboard
// reads between pipeline runs do not hit PostgreSQL. The cache is strictly
// optional: every caller treats a miss or a Redis failure as "build from the
// store".
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edusignal/dropout-radar/internal/application/query"
)

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when the Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

const (
	// dashboardKey holds the latest prepared dashboard view.
	dashboardKey = "dashboard:latest"

	// TTLDashboard bounds staleness between a pipeline run and the next
	// dashboard read in case invalidation is missed.
	TTLDashboard = 30 * time.Minute
)

// SnapshotCache implements query.SnapshotCache and the assessment pipeline's
// invalidation hook on top of a Redis client.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache connects to Redis using a redis:// URL and verifies the
// connection.
func NewSnapshotCache(ctx context.Context, redisURL string) (*SnapshotCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &SnapshotCache{client: client, ttl: TTLDashboard}, nil
}

// Close closes the Redis connection.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetDashboard returns the cached dashboard view, or ErrCacheMiss.
func (c *SnapshotCache) GetDashboard(ctx context.Context) (*query.DashboardView, error) {
	data, err := c.client.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var view query.DashboardView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return &view, nil
}

// SetDashboard stores the dashboard view with the cache TTL.
func (c *SnapshotCache) SetDashboard(ctx context.Context, view *query.DashboardView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, dashboardKey, data, c.ttl).Err()
}

// InvalidateSnapshot drops the cached view after a snapshot write.
func (c *SnapshotCache) InvalidateSnapshot(ctx context.Context) error {
	return c.client.Del(ctx, dashboardKey).Err()
}
