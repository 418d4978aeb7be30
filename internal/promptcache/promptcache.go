// Package promptcache stores assembled skill prompts in Redis, keyed by a
// hash of the estimator, the budget and the ordered skill set.
package promptcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nidhogg/stratai/internal/skill"
	"github.com/nidhogg/stratai/internal/tokens"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when no entry exists for a key.
var ErrMiss = errors.New("prompt cache miss")

const keyPrefix = "stratai:skillprompt:"

// Cache is a Redis-backed store of composed injections.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, ttl, logger), nil
}

// NewWithClient wraps an existing client. A non-positive ttl keeps entries
// until Redis evicts them.
func NewWithClient(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key hashes the estimator name, budget and skills into a cache key. Skills
// are put in packing order first, so any permutation of the same set yields
// the same key.
func Key(estimator string, budget skill.Budget, skills []*skill.Skill) string {
	budget = budget.Clamped()
	h := sha256.New()
	writeField(h, estimator)
	writeField(h, strconv.Itoa(budget.FullInjectionThresholdTokens))
	writeField(h, strconv.Itoa(budget.TotalBudgetTokens))
	for _, s := range skill.Sort(skills) {
		writeField(h, s.ID)
		writeField(h, s.Name)
		writeField(h, string(s.ActivationMode))
		writeField(h, s.Description)
		writeField(h, s.Summary)
		writeField(h, s.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes v so adjacent fields cannot run together.
func writeField(w io.Writer, v string) {
	fmt.Fprintf(w, "%d:%s;", len(v), v)
}

// Get returns the cached injection for key, or ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) (*skill.Injection, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var inj skill.Injection
	if err := json.Unmarshal(data, &inj); err != nil {
		return nil, fmt.Errorf("decode cached prompt %s: %w", key, err)
	}
	return &inj, nil
}

// Set stores inj under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, inj *skill.Injection) error {
	data, err := json.Marshal(inj)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Composer is anything that turns a skill set into an injection.
type Composer interface {
	Compose(ctx context.Context, budget skill.Budget, skills []*skill.Skill) *skill.Injection
}

// CachedComposer composes through an Injector and memoizes results in a
// Cache. A nil cache disables memoization. Cache errors are logged and
// never fail a composition.
type CachedComposer struct {
	injector *skill.Injector
	cache    *Cache
	logger   *zap.Logger
}

// NewCachedComposer creates a CachedComposer.
func NewCachedComposer(injector *skill.Injector, cache *Cache, logger *zap.Logger) *CachedComposer {
	return &CachedComposer{injector: injector, cache: cache, logger: logger}
}

// DefaultBudget returns the budget of the underlying injector.
func (cc *CachedComposer) DefaultBudget() skill.Budget {
	return cc.injector.Budget()
}

// Compose returns the injection for skills under budget.
func (cc *CachedComposer) Compose(ctx context.Context, budget skill.Budget, skills []*skill.Skill) *skill.Injection {
	in := cc.injector
	if budget.Clamped() != in.Budget() {
		in = in.WithBudget(budget)
	}
	if cc.cache == nil {
		return in.Compose(skills)
	}

	key := Key(tokens.NameOf(in.Estimator()), in.Budget(), skills)
	inj, err := cc.cache.Get(ctx, key)
	if err == nil {
		cc.logger.Debug("skill prompt cache hit", zap.String("key", key))
		return inj
	}
	if !errors.Is(err, ErrMiss) {
		cc.logger.Warn("skill prompt cache read failed", zap.Error(err))
	}

	inj = in.Compose(skills)
	if err := cc.cache.Set(ctx, key, inj); err != nil {
		cc.logger.Warn("skill prompt cache write failed", zap.Error(err))
	}
	return inj
}
