// Package cache provides the Redis-backed JSON cache used for price reads
// and suggestion-job state.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// PriceKey builds the cache key for a serialized price record.
func PriceKey(sellerID, sku string) string {
	return fmt.Sprintf("price:%s:%s", sellerID, sku)
}

// SuggestionKey builds the cache key tracking a suggestion job.
func SuggestionKey(jobID string) string {
	return fmt.Sprintf("suggestion:%s", jobID)
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps a redis client with a default TTL for Set calls.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// GetJSON loads key into dest, reporting whether the key existed. A missing
// key is not an error.
func (c *Redis) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "cache get")
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, errors.Wrap(err, "cache decode")
	}
	return true, nil
}

// SetJSON stores value under key with the configured TTL.
func (c *Redis) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "cache encode")
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "cache set")
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrap(c.client.Del(ctx, key).Err(), "cache delete")
}
