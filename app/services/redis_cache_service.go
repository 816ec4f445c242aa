package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRedisPrefix = "travel_chat:"
	defaultRedisTTL    = 24 * time.Hour
	redisScanCount     = 500
)

// RedisCacheService caches chat answers in Redis as JSON.
type RedisCacheService struct {
	client  redis.UniversalClient
	logger  *zap.Logger
	prefix  string
	ttl     time.Duration
	counter hitCounter
}

// NewRedisCacheService connects to redisURL and pings it.
func NewRedisCacheService(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheServiceWithClient(client, ttl, logger), nil
}

// NewRedisCacheServiceWithClient wraps an existing client.
func NewRedisCacheServiceWithClient(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisCacheService {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: defaultRedisPrefix,
		ttl:    ttl,
	}
}

// Get returns the cached answer for key.
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.ChatResult, bool, error) {
	cacheKey := rcs.prefix + key

	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.counter.miss()
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Redis get failed", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	var result models.ChatResult
	if err := json.Unmarshal(val, &result); err != nil {
		rcs.logger.Error("Cached answer is not valid JSON", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	rcs.counter.hit()
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &result, true, nil
}

// Set stores result under key with the service TTL.
func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.ChatResult) error {
	cacheKey := rcs.prefix + key

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached answer: %w", err)
	}

	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Redis set failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}
	return nil
}

// Delete removes key.
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	cacheKey := rcs.prefix + key

	if err := rcs.client.Del(ctx, cacheKey).Err(); err != nil {
		rcs.logger.Error("Redis delete failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}
	return nil
}

// Clear removes every key under the service prefix.
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	var deleted int
	err := rcs.scan(ctx, func(keys []string) error {
		if err := rcs.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		deleted += len(keys)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear redis cache: %w", err)
	}

	rcs.counter.reset()
	rcs.logger.Info("Redis cache cleared", zap.Int("keys_deleted", deleted))
	return nil
}

// InvalidateByDatasetVersion removes answers whose dataset version differs
// from datasetVersion.
func (rcs *RedisCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) (int64, error) {
	var deleted int64
	err := rcs.scan(ctx, func(keys []string) error {
		values, err := rcs.client.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}

		var stale []string
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var cached struct {
				DatasetVersion string `json:"dataset_version"`
			}
			if json.Unmarshal([]byte(raw), &cached) != nil || cached.DatasetVersion != datasetVersion {
				stale = append(stale, keys[i])
			}
		}
		if len(stale) == 0 {
			return nil
		}

		n, err := rcs.client.Del(ctx, stale...).Result()
		deleted += n
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidate redis cache: %w", err)
	}

	rcs.logger.Info("Redis cache invalidated",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("deleted_count", deleted))
	return deleted, nil
}

// scan walks every key under the prefix in batches.
func (rcs *RedisCacheService) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := rcs.client.Scan(ctx, cursor, rcs.prefix+"*", redisScanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// GetStats returns hit counters and the number of keys under the prefix.
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var items int64
	err := rcs.scan(ctx, func(keys []string) error {
		items += int64(len(keys))
		return nil
	})
	if err != nil {
		rcs.logger.Warn("Could not count redis keys", zap.Error(err))
	}
	return rcs.counter.stats(CacheBackendRedis, items), nil
}

// Exists reports whether key is cached.
func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rcs.client.Exists(ctx, rcs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTTL returns the remaining lifetime of key.
func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return rcs.client.TTL(ctx, rcs.prefix+key).Result()
}

// Ping checks the connection.
func (rcs *RedisCacheService) Ping(ctx context.Context) error {
	return rcs.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}

// SetTTL changes the TTL applied to later writes.
func (rcs *RedisCacheService) SetTTL(ttl time.Duration) {
	rcs.ttl = ttl
}
