package service

import (
	"context"
	"fmt"

	"eduforum/internal/cache"
)

// ScoreService exposes the external engagement-score provider to the
// coordination core. Scores feed BALANCED breakout assignment.
type ScoreService struct {
	scoreCache cache.ScoreCache
}

// NewScoreService creates a new score service.
func NewScoreService(scoreCache cache.ScoreCache) *ScoreService {
	return &ScoreService{scoreCache: scoreCache}
}

// Scores returns engagement scores for the given users; users the provider
// has never scored come back as 0.
func (s *ScoreService) Scores(ctx context.Context, userIDs []string) (map[string]float64, error) {
	scores, err := s.scoreCache.GetScores(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load engagement scores: %w", err)
	}
	return scores, nil
}
