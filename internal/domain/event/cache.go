package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	detailCacheTTL       = 5 * time.Minute
	keyPrefixEventBySlug = "event:slug:"
)

// Cache holds rendered event pages. Failures are logged and treated as
// misses; the database stays the source of truth.
type Cache interface {
	Get(ctx context.Context, slug string) (*DetailResponse, bool)
	Set(ctx context.Context, slug string, detail *DetailResponse)
	Invalidate(ctx context.Context, slug string)
}

type redisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache returns a Redis backed cache, or a no-op cache when client is nil.
func NewCache(client *redis.Client) Cache {
	if client == nil {
		return nopCache{}
	}
	return &redisCache{redis: client, ttl: detailCacheTTL}
}

func (c *redisCache) Get(ctx context.Context, slug string) (*DetailResponse, bool) {
	raw, err := c.redis.Get(ctx, keyPrefixEventBySlug+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("slug", slug).Msg("event cache read failed")
		}
		return nil, false
	}

	var detail DetailResponse
	if err := json.Unmarshal(raw, &detail); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("event cache entry corrupt")
		return nil, false
	}
	return &detail, true
}

func (c *redisCache) Set(ctx context.Context, slug string, detail *DetailResponse) {
	raw, err := json.Marshal(detail)
	if err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("event cache encode failed")
		return
	}
	if err := c.redis.Set(ctx, keyPrefixEventBySlug+slug, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("event cache write failed")
	}
}

func (c *redisCache) Invalidate(ctx context.Context, slug string) {
	if err := c.redis.Del(ctx, keyPrefixEventBySlug+slug).Err(); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("event cache invalidate failed")
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*DetailResponse, bool) { return nil, false }
func (nopCache) Set(context.Context, string, *DetailResponse) {}
func (nopCache) Invalidate(context.Context, string) {}
