// Package cache keeps a read-through copy of the goal matrix in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
)

const (
	goalMatrixKey     = "staffdash:goals:matrix"
	goalGenerationKey = "staffdash:goals:generation"
)

// fillScript stores the matrix only while the generation still matches the one
// read before loading from the database.
var fillScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// GoalCache stores the nested goal matrix. Fills are guarded by a generation
// token: take a Token before reading the database and pass it to Set, so a fill
// that raced with Invalidate is dropped.
type GoalCache interface {
	Get(ctx context.Context) (domain.GoalMatrix, bool)
	Token(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, m domain.GoalMatrix)
	Invalidate(ctx context.Context)
}

// NewGoalCache returns a Redis-backed cache, or a no-op one when r is nil.
// Cache failures are logged and treated as misses.
func NewGoalCache(r *persistence.Redis, ttl time.Duration, logger *zap.Logger) GoalCache {
	if r == nil || r.Client == nil {
		return noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisGoalCache{client: r.Client, ttl: ttl, logger: logger}
}

type redisGoalCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func (c *redisGoalCache) Get(ctx context.Context) (domain.GoalMatrix, bool) {
	raw, err := c.client.Get(ctx, goalMatrixKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("goal cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var m domain.GoalMatrix
	if err := json.Unmarshal(raw, &m); err != nil {
		c.logger.Warn("goal cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return m, true
}

// Token returns the current generation. ok is false when Redis is unreachable,
// in which case the caller skips the fill.
func (c *redisGoalCache) Token(ctx context.Context) (string, bool) {
	gen, err := c.client.Get(ctx, goalGenerationKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		c.logger.Warn("goal cache generation read failed", zap.Error(err))
		return "", false
	}
	return gen, true
}

func (c *redisGoalCache) Set(ctx context.Context, token string, m domain.GoalMatrix) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	stored, err := fillScript.Run(ctx, c.client, []string{goalGenerationKey, goalMatrixKey},
		token, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("goal cache write failed", zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("goal cache fill skipped after invalidation")
	}
}

// Invalidate bumps the generation before dropping the entry so in-flight fills
// that read the old generation are rejected.
func (c *redisGoalCache) Invalidate(ctx context.Context) {
	if _, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, goalGenerationKey)
		pipe.Del(ctx, goalMatrixKey)
		return nil
	}); err != nil {
		c.logger.Warn("goal cache invalidation failed", zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context) (domain.GoalMatrix, bool)  { return nil, false }
func (noopCache) Token(context.Context) (string, bool)           { return "", false }
func (noopCache) Set(context.Context, string, domain.GoalMatrix) {}
func (noopCache) Invalidate(context.Context)                     {}
