package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codyseavey/versewise/internal/models"
)

const redisCachePrefix = "versewise:translation:"

// upsertScript writes the hash unless the stored quality is higher.
var upsertScript = redis.NewScript(`
local q = redis.call('HGET', KEYS[1], 'quality_score')
if q and tonumber(q) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
return 1
`)

// RedisTranslationCache is a durable cache storing one hash per translation.
type RedisTranslationCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisTranslationCache wraps an existing client.
func NewRedisTranslationCache(client *redis.Client) *RedisTranslationCache {
	return &RedisTranslationCache{client: client, now: time.Now}
}

func redisKey(key models.CacheKey) string {
	return redisCachePrefix + hashText(cacheKeyString(key))
}

// Lookup implements DurableCache.
func (c *RedisTranslationCache) Lookup(ctx context.Context, key models.CacheKey, minQuality float64) (*models.CacheEntry, error) {
	rk := redisKey(key)

	fields, err := c.client.HGetAll(ctx, rk).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrCacheMiss
	}

	quality, err := strconv.ParseFloat(fields["quality_score"], 64)
	if err != nil || quality < minQuality {
		return nil, ErrCacheMiss
	}

	now := c.now()
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, rk, "updated_at", now.Unix())
	pipe.HIncrBy(ctx, rk, "hit_count", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		warnLog("Failed to refresh redis cache entry: %v", err)
	}

	return &models.CacheEntry{
		Key:            key,
		TranslatedText: fields["translated_text"],
		Provider:       fields["translation_service"],
		QualityScore:   quality,
		Timestamp:      now,
	}, nil
}

// Upsert implements DurableCache.
func (c *RedisTranslationCache) Upsert(ctx context.Context, entry models.CacheEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = c.now()
	}
	quality := strconv.FormatFloat(entry.QualityScore, 'f', -1, 64)

	err := upsertScript.Run(ctx, c.client, []string{redisKey(entry.Key)},
		quality,
		"source_text", entry.Key.SourceText,
		"source_lang", entry.Key.SourceLang,
		"target_lang", entry.Key.TargetLang,
		"translated_text", entry.TranslatedText,
		"translation_service", entry.Provider,
		"quality_score", quality,
		"updated_at", entry.Timestamp.Unix(),
	).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis upsert: %w", err)
	}
	return nil
}

// Clear implements DurableCache.
func (c *RedisTranslationCache) Clear(ctx context.Context) (int64, error) {
	var removed int64
	iter := c.client.Scan(ctx, 0, redisCachePrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("redis DEL: %w", err)
		}
		removed += n
	}
	return removed, iter.Err()
}

// Stats implements DurableCache.
func (c *RedisTranslationCache) Stats(ctx context.Context) (CacheStats, error) {
	stats := CacheStats{ByProvider: map[string]int64{}}

	iter := c.client.Scan(ctx, 0, redisCachePrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		vals, err := c.client.HMGet(ctx, iter.Val(), "translation_service", "hit_count").Result()
		if err != nil {
			return stats, fmt.Errorf("redis HMGET: %w", err)
		}
		stats.TotalEntries++
		if provider, ok := vals[0].(string); ok {
			stats.ByProvider[provider]++
		}
		if hits, ok := vals[1].(string); ok {
			if n, err := strconv.ParseInt(hits, 10, 64); err == nil {
				stats.TotalHits += n
			}
		}
	}
	return stats, iter.Err()
}
