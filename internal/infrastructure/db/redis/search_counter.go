package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const searchRankKey = "searches:provinces"

// SearchCounter accumulates search frequency per province in a sorted set,
// feeding the most-searched ranking.
type SearchCounter struct {
	client *redis.Client
}

func NewSearchCounter(client *redis.Client) *SearchCounter {
	return &SearchCounter{client: client}
}

func (c *SearchCounter) Record(ctx context.Context, provinceID string) error {
	if provinceID == "" {
		return nil
	}
	if err := c.client.ZIncrBy(ctx, searchRankKey, 1, provinceID).Err(); err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

func (c *SearchCounter) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := c.client.ZRangeWithScores(ctx, searchRankKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read search counts: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		id, ok := row.Member.(string)
		if !ok {
			continue
		}
		out[id] = int64(row.Score)
	}
	return out, nil
}
