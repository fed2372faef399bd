// Package cache keeps computed dashboard stats in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/invoiceledger/dashboard"
	"github.com/xraph/invoiceledger/id"
)

const (
	keyPrefix     = "invoiceledger:stats:"
	versionPrefix = "invoiceledger:stats-version:"
)

// errStaleVersion aborts a SetStats whose snapshot predates a write.
var errStaleVersion = errors.New("cache: stats version moved")

// StatsCache stores one JSON snapshot per company next to a version
// counter. Every invalidation bumps the version, and a snapshot is only
// stored while the version it was computed under is still current.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache wraps client. A zero ttl keeps entries until invalidated.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func key(companyID id.CompanyID) string { return keyPrefix + companyID.String() }

func versionKey(companyID id.CompanyID) string { return versionPrefix + companyID.String() }

// GetStats returns the cached snapshot; ok is false on a miss.
func (c *StatsCache) GetStats(ctx context.Context, companyID id.CompanyID) (*dashboard.Stats, bool, error) {
	payload, err := c.client.Get(ctx, key(companyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get stats: %w", err)
	}
	var s dashboard.Stats
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, false, fmt.Errorf("cache: decode stats: %w", err)
	}
	return &s, true, nil
}

// StatsVersion returns the company's current version; 0 before the first
// invalidation.
func (c *StatsCache) StatsVersion(ctx context.Context, companyID id.CompanyID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: get stats version: %w", err)
	}
	return v, nil
}

// SetStats stores s if the company's version still equals version.
// A snapshot computed before a later write is dropped without error.
func (c *StatsCache) SetStats(ctx context.Context, companyID id.CompanyID, s *dashboard.Stats, version int64) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cache: encode stats: %w", err)
	}

	vk := versionKey(companyID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(companyID), payload, c.ttl)
			return nil
		})
		return err
	}, vk)

	switch {
	case err == nil, errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("cache: set stats: %w", err)
	}
}

// InvalidateStats bumps the version and drops the snapshot atomically.
func (c *StatsCache) InvalidateStats(ctx context.Context, companyID id.CompanyID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(companyID))
		pipe.Del(ctx, key(companyID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: invalidate stats: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *StatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
