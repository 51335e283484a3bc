package core

import (
	"context"
	"fmt"

	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/models"
)

const wellnessDays = 7

// statsOrDefault returns the stored stats or the values of a new user
func (s *Service) statsOrDefault(userID string) (models.UserStats, error) {
	stats, err := s.store.GetStats(userID)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("loading stats: %w", err)
	}
	if stats == nil {
		return models.UserStats{UserID: userID, Level: 1}, nil
	}
	return *stats, nil
}

// Stats returns the user's points, level and streaks
func (s *Service) Stats(ctx context.Context, userID string) (gamification.StatsView, error) {
	stats, err := s.statsOrDefault(userID)
	if err != nil {
		return gamification.StatsView{}, err
	}
	return gamification.NewStatsView(stats), nil
}

// PointHistory returns the newest point transactions
func (s *Service) PointHistory(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	txs, err := s.store.PointTransactions(userID, pageSize(limit))
	if err != nil {
		return nil, fmt.Errorf("loading point history: %w", err)
	}
	return nonNil(txs), nil
}

// Achievements returns the catalog merged with the user's progress
func (s *Service) Achievements(ctx context.Context, userID string) ([]gamification.AchievementView, error) {
	progress, err := s.store.AchievementProgress(userID)
	if err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}
	return gamification.AchievementViews(gamification.Achievements(), progress), nil
}

// Rewards returns every reward with its unlock state. Reading never writes:
// unlocks are stored when points are earned.
func (s *Service) Rewards(ctx context.Context, userID string) ([]gamification.RewardView, error) {
	stats, err := s.statsOrDefault(userID)
	if err != nil {
		return nil, err
	}
	states, err := s.store.RewardStates(userID)
	if err != nil {
		return nil, fmt.Errorf("loading rewards: %w", err)
	}
	views, _ := gamification.EvaluateRewards(gamification.Rewards(), states, stats.TotalPoints, s.now())
	return views, nil
}

func (s *Service) rewardUnlocked(userID string, def gamification.RewardDef) (bool, error) {
	stats, err := s.statsOrDefault(userID)
	if err != nil {
		return false, err
	}
	states, err := s.store.RewardStates(userID)
	if err != nil {
		return false, fmt.Errorf("loading rewards: %w", err)
	}
	return gamification.IsRewardUnlocked(def, states[def.ID], stats.TotalPoints), nil
}

// WellnessSuggestions personalises activities from the last week's moods and
// the latest journal entry
func (s *Service) WellnessSuggestions(ctx context.Context, userID string) ([]string, error) {
	moods, err := s.store.MoodsSince(userID, s.now().AddDate(0, 0, -wellnessDays))
	if err != nil {
		return nil, fmt.Errorf("loading moods: %w", err)
	}
	scores := make([]int, 0, len(moods))
	for _, m := range moods {
		scores = append(scores, m.Score)
	}

	latest, err := s.recentContents(userID, 1)
	if err != nil {
		return nil, err
	}
	var recent string
	if len(latest) > 0 {
		recent = latest[0]
	}
	return s.analyzer.WellnessSuggestions(ctx, scores, recent), nil
}

// WellnessPlan returns a multi-category plan
func (s *Service) WellnessPlan(ctx context.Context) []insights.WellnessSuggestion {
	return s.analyzer.WellnessPlan(ctx)
}
