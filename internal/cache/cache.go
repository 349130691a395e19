// Package cache keeps rendered car listings in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const generationKey = "cars:list:gen"

// CarListCache stores listing responses under the current generation.
// Bumping the generation orphans every stored page at once; the orphans
// expire on their own TTL.
type CarListCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewCarListCache connects to rawURL. An empty URL or a failed ping returns
// a disabled cache whose methods are no-ops.
func NewCarListCache(ctx context.Context, rawURL string, ttl time.Duration, log *zap.Logger) *CarListCache {
	c := &CarListCache{ttl: ttl, log: log}
	if rawURL == "" {
		log.Info("car list cache disabled: REDIS_URL not set")
		return c
	}

	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		log.Warn("car list cache disabled: bad REDIS_URL", zap.Error(err))
		return c
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("car list cache disabled: redis unreachable", zap.Error(err))
		_ = client.Close()
		return c
	}

	log.Info("car list cache connected", zap.String("addr", opt.Addr))
	c.client = client
	return c
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *CarListCache {
	return &CarListCache{client: client, ttl: ttl, log: log}
}

func (c *CarListCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Key hashes the query string. Encode sorts parameters, so equivalent
// queries share a key.
func Key(q url.Values) string {
	sum := sha256.Sum256([]byte(q.Encode()))
	return hex.EncodeToString(sum[:])
}

func (c *CarListCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func entryKey(gen, key string) string {
	return "cars:list:" + gen + ":" + key
}

// Get returns the cached body for key, if any, and the slot a freshly
// rendered body should be stored under. The slot is bound to the generation
// read here, so a body rendered before an Invalidate lands in an orphaned
// generation. An empty slot means the body must not be stored.
func (c *CarListCache) Get(ctx context.Context, key string) ([]byte, string, bool) {
	if !c.Enabled() {
		return nil, "", false
	}
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn("car list cache read failed", zap.Error(err))
		return nil, "", false
	}
	slot := entryKey(gen, key)
	body, err := c.client.Get(ctx, slot).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("car list cache read failed", zap.Error(err))
		}
		return nil, slot, false
	}
	return body, slot, true
}

// Set stores body under a slot returned by Get.
func (c *CarListCache) Set(ctx context.Context, slot string, body []byte) {
	if !c.Enabled() || slot == "" {
		return
	}
	if err := c.client.Set(ctx, slot, body, c.ttl).Err(); err != nil {
		c.log.Warn("car list cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached listing.
func (c *CarListCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.log.Warn("car list cache invalidation failed", zap.Error(err))
	}
}

func (c *CarListCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
