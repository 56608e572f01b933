package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-blur-bench/pkg/stats"
)

const (
	RunsKey = "loomy:runs"
	// MaxRuns bounds the history list.
	MaxRuns = 100
)

// RedisClient keeps a bounded history of benchmark runs in a Redis list, newest first.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, addr string) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// PushRun records run at the head of the history and trims it to MaxRuns.
func (r *RedisClient) PushRun(ctx context.Context, run stats.PerformanceData) error {
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, RunsKey, b)
	pipe.LTrim(ctx, RunsKey, 0, MaxRuns-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push run %s: %w", run.RunID, err)
	}
	return nil
}

// RecentRuns returns up to n runs, newest first.
func (r *RedisClient) RecentRuns(ctx context.Context, n int) ([]stats.PerformanceData, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, RunsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	runs := make([]stats.PerformanceData, 0, len(raw))
	for _, s := range raw {
		var run stats.PerformanceData
		if err := json.Unmarshal([]byte(s), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
