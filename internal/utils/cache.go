package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache keys shared by readers and invalidators
const (
	OrdersCacheKey     = "orders:all"
	balanceCachePrefix = "balance:"
	versionSuffix      = ":v"
)

// BalanceCacheKey is the cache key of a user's balance view
func BalanceCacheKey(email string) string {
	return balanceCachePrefix + email
}

func versionKey(key string) string {
	return key + versionSuffix
}

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client behaves as a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err // Stale or foreign payload
	}
	return true, nil
}

// CacheVersion returns how many times key has been invalidated.
// Read it before loading the value that will be passed to SetCache.
func CacheVersion(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	v, err := rdb.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil // Never invalidated
	}
	return v, err
}

// SetCache sets a value in Redis with a specified TTL, unless key was
// invalidated after version was read. It reports whether the value was stored.
func SetCache(ctx context.Context, rdb *redis.Client, key string, version int64, value any, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return false, err // Return error if marshaling fails
	}

	vk := versionKey(key)
	stored := false
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil // Invalidated while the value was loading
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl) // Set value in Redis with TTL
			return nil
		})
		stored = err == nil
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil // Version bumped between WATCH and EXEC
	}
	return stored, err
}

// DeleteCache deletes keys from Redis and bumps their versions
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...) // Delete keys from Redis
		for _, k := range keys {
			pipe.Incr(ctx, versionKey(k)) // Fence out in-flight readers
		}
		return nil
	})
	return err
}
