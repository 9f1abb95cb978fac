// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisstore "github.com/taibuivan/cinescript/internal/platform/redis"
)

// RedisKeyValueStore implements [KeyValueStore] using Redis.
type RedisKeyValueStore struct {
	client *redis.Client
}

// NewRedisKeyValueStore creates a new Redis-backed [KeyValueStore].
func NewRedisKeyValueStore(client *redis.Client) *RedisKeyValueStore {
	return &RedisKeyValueStore{client: client}
}

/*
Get retrieves the value stored under key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: Stored value
  - error: ErrKeyNotFound or connectivity errors
*/
func (repository *RedisKeyValueStore) Get(context context.Context, key string) (string, error) {

	// Read the raw value
	value, err := repository.client.Get(context, key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("redis_kv_get_failed: %w", err)
	}

	return value, nil
}

/*
SetMany writes all entries inside a MULTI/EXEC transaction without expiry.

Parameters:
  - context: context.Context
  - entries: map[string]string

Returns:
  - error: Execution errors
*/
func (repository *RedisKeyValueStore) SetMany(context context.Context, entries map[string]string) error {

	// Queue every write in one transaction so readers never see half a snapshot
	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(context, key, value, 0)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("redis_kv_set_failed: %w", err)
	}

	return nil
}

// Ping implements [KeyValueStore].
func (repository *RedisKeyValueStore) Ping(context context.Context) error {
	return redisstore.Ping(context, repository.client)
}
