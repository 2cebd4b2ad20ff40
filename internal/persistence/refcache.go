package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/domain"
)

const (
	defaultStatusKey   = "refdata:default:status"
	defaultPriorityKey = "refdata:default:priority"
)

// ReferenceCache keeps resolved reference-data defaults in Redis so request
// creation does not hit Postgres for values that rarely change. Every miss
// or Redis failure falls through to the database.
type ReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceCache builds the cache. A nil client yields a no-op cache.
func NewReferenceCache(r *Redis, ttl time.Duration, logger *zap.Logger) *ReferenceCache {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &ReferenceCache{client: client, ttl: ttl, logger: logger}
}

// DefaultStatus returns the cached default status, if any.
func (c *ReferenceCache) DefaultStatus(ctx context.Context) (*domain.Status, bool) {
	var status domain.Status
	if !c.get(ctx, defaultStatusKey, &status) {
		return nil, false
	}
	return &status, true
}

// StoreDefaultStatus caches the default status.
func (c *ReferenceCache) StoreDefaultStatus(ctx context.Context, status *domain.Status) {
	c.set(ctx, defaultStatusKey, status)
}

// DefaultPriority returns the cached default priority, if any.
func (c *ReferenceCache) DefaultPriority(ctx context.Context) (*domain.Priority, bool) {
	var priority domain.Priority
	if !c.get(ctx, defaultPriorityKey, &priority) {
		return nil, false
	}
	return &priority, true
}

// StoreDefaultPriority caches the default priority.
func (c *ReferenceCache) StoreDefaultPriority(ctx context.Context, priority *domain.Priority) {
	c.set(ctx, defaultPriorityKey, priority)
}

func (c *ReferenceCache) get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Debug("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false
	}
	return true
}

func (c *ReferenceCache) set(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Debug("reference cache write failed", zap.String("key", key), zap.Error(err))
	}
}
