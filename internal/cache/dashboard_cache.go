package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/doorline/wholesale-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardKeyPrefix = "analytics:dashboard"
	scanBatchSize      = 100
)

// DashboardCache caches the composite lifecycle dashboard. Entries are keyed
// by as-of date plus a hash of the rule set in force, so a rules change can
// never serve stale classifications.
type DashboardCache interface {
	Get(ctx context.Context, asOf time.Time, rulesHash string) (*domain.Dashboard, bool, error)
	Set(ctx context.Context, asOf time.Time, rulesHash string, dashboard *domain.Dashboard) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

// NewDashboardCache returns a redis-backed cache, or a noop cache when
// caching is disabled.
func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{client: client, ttl: ttl}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, asOf time.Time, rulesHash string) (*domain.Dashboard, bool, error) {
	payload, err := c.client.Get(ctx, dashboardKey(asOf, rulesHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &dashboard, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, asOf time.Time, rulesHash string, dashboard *domain.Dashboard) error {
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, dashboardKey(asOf, rulesHash), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardKeyPrefix, scanBatchSize)
}

func (n *noopDashboardCache) Get(ctx context.Context, asOf time.Time, rulesHash string) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, asOf time.Time, rulesHash string, dashboard *domain.Dashboard) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func dashboardKey(asOf time.Time, rulesHash string) string {
	return fmt.Sprintf("%s:%s:%s", dashboardKeyPrefix, asOf.UTC().Format("2006-01-02"), rulesHash)
}

// HashRules produces a stable short hash of any serializable rule set.
func HashRules(rules interface{}) string {
	raw, err := json.Marshal(rules)
	if err != nil {
		return "default"
	}

	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}
