package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aquamonitor/internal/explain"

	"github.com/redis/go-redis/v9"
)

const explanationPrefix = "explain:"

type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// ExplanationKey identifies an analysis of one model version over a sample count.
func ExplanationKey(modelVersion string, samples int) string {
	return fmt.Sprintf("%s%s:%d", explanationPrefix, modelVersion, samples)
}

// StoreExplanation caches an analysis result with expiration.
func (r *RedisClient) StoreExplanation(ctx context.Context, key string, result *explain.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result in Redis: %w", err)
	}
	return nil
}

// GetExplanation returns the cached result; ok is false on a miss.
func (r *RedisClient) GetExplanation(ctx context.Context, key string) (*explain.Result, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get result from Redis: %w", err)
	}

	var result explain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, true, nil
}

// InvalidateExplanations drops every cached analysis, used after retraining.
func (r *RedisClient) InvalidateExplanations(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, explanationPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached results: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// GetStatus reports pool statistics for the health endpoint.
func (r *RedisClient) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	stats := r.client.PoolStats()
	return map[string]interface{}{
		"connected":    true,
		"hits":         stats.Hits,
		"misses":       stats.Misses,
		"active_conns": stats.TotalConns,
	}, nil
}
