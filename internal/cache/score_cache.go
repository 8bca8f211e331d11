package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ScoreCache handles Redis ZSET operations for engagement scores. The scores
// are written by the external engagement provider; the core only reads them
// for BALANCED breakout assignment.
type ScoreCache interface {
	SetScore(ctx context.Context, userID string, score float64) error
	GetScores(ctx context.Context, userIDs []string) (map[string]float64, error)
}

type scoreCache struct {
	client *redis.Client
}

// NewScoreCache creates a new score cache.
func NewScoreCache(client *redis.Client) ScoreCache {
	return &scoreCache{client: client}
}

func (c *scoreCache) key() string {
	return "engagement:scores"
}

func (c *scoreCache) SetScore(ctx context.Context, userID string, score float64) error {
	return c.client.ZAdd(ctx, c.key(), redis.Z{
		Score:  score,
		Member: userID,
	}).Err()
}

func (c *scoreCache) GetScores(ctx context.Context, userIDs []string) (map[string]float64, error) {
	if len(userIDs) == 0 {
		return map[string]float64{}, nil
	}
	members := make([]string, len(userIDs))
	copy(members, userIDs)

	scores, err := c.client.ZMScore(ctx, c.key(), members...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(userIDs))
	for i, s := range scores {
		out[userIDs[i]] = s // missing members come back as 0
	}
	return out, nil
}
