package fx

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// RedisCache shares FX rates between processes. Semantics match
// MemoryCache: expiry reads as absent, failures read as absent.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache wraps an existing redis client with the cache TTL.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(pair string) string { return "fx:rate:" + pair }

// GetRate reads a cached rate. Any redis error degrades to a miss; the
// caller's static fallback covers it.
func (c *RedisCache) GetRate(from, to string) (float64, bool) {
	pair, err := PairKey(from, to)
	if err != nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, redisKey(pair)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Str("pair", pair).Err(err).Msg("fx redis read failed, treating as miss")
		}
		return 0, false
	}
	rate, err := strconv.ParseFloat(val, 64)
	if err != nil || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// SetRate stores a rate with TTL. Write failures are logged and dropped:
// every writer computes the same value inside the window anyway.
func (c *RedisCache) SetRate(from, to string, rate float64) {
	pair, err := PairKey(from, to)
	if err != nil || rate <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, redisKey(pair), strconv.FormatFloat(rate, 'f', -1, 64), c.ttl).Err(); err != nil {
		log.Warn().Str("pair", pair).Err(err).Msg("fx redis write failed")
	}
}
