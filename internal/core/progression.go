package core

import (
	"fmt"

	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/models"
)

// Progression is what one activity changed in a user's standing
type Progression struct {
	PointsAwarded   int                           `json:"points_awarded"`
	LeveledUp       bool                          `json:"leveled_up"`
	Stats           gamification.StatsView        `json:"stats"`
	NewAchievements []gamification.AchievementDef `json:"new_achievements"`
	NewRewards      []gamification.RewardDef      `json:"new_rewards"`
}

type award struct {
	activity    gamification.Activity
	points      int
	txType      string
	description string
}

// progress applies an activity and everything it unlocks. a may be nil to
// only re-check achievements and rewards.
func (s *Service) progress(userID string, a *award) (*Progression, error) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	now := s.now()
	stats, err := s.store.EnsureStats(userID, now)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	prog := &Progression{
		NewAchievements: []gamification.AchievementDef{},
		NewRewards:      []gamification.RewardDef{},
	}
	startLevel := stats.Level

	if a != nil {
		if a.activity != "" {
			s.tracker.Record(stats, a.activity)
		}
		if a.points > 0 {
			if err := s.credit(stats, a.points, a.txType, a.description); err != nil {
				return nil, err
			}
			prog.PointsAwarded += a.points
		}
		stats.UpdatedAt = now
		if err := s.store.SaveStats(stats); err != nil {
			return nil, fmt.Errorf("saving stats: %w", err)
		}
	}

	if err := s.unlockAchievements(stats, prog); err != nil {
		return nil, err
	}
	if err := s.unlockRewards(stats, prog); err != nil {
		return nil, err
	}

	if stats.Level > startLevel {
		prog.LeveledUp = true
		s.events.Publish(userID, events.Event{Type: events.TypeLevelUp, Data: map[string]int{"level": stats.Level}})
	}
	prog.Stats = gamification.NewStatsView(*stats)
	return prog, nil
}

// credit adds points to stats and records them in the ledger
func (s *Service) credit(stats *models.UserStats, points int, txType, description string) error {
	gamification.ApplyPoints(stats, points)
	err := s.store.LogPoints(&models.PointTransaction{
		ID:          newID(),
		UserID:      stats.UserID,
		Points:      points,
		Type:        txType,
		Description: description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("logging points: %w", err)
	}
	s.metrics.PointsAwarded(txType, points)
	return nil
}

func (s *Service) snapshot(stats models.UserStats) (gamification.Snapshot, error) {
	snap := gamification.Snapshot{Stats: stats}
	var err error
	if snap.MoodEntries, err = s.store.CountMoods(stats.UserID); err != nil {
		return snap, err
	}
	if snap.Journals, snap.TotalWords, err = s.store.JournalTotals(stats.UserID); err != nil {
		return snap, err
	}
	if snap.Insights, err = s.store.CountInsights(stats.UserID, ""); err != nil {
		return snap, err
	}
	if snap.WellnessTips, err = s.store.CountInsights(stats.UserID, models.InsightSuggestion); err != nil {
		return snap, err
	}
	return snap, nil
}

// unlockAchievements evaluates the catalog until nothing new unlocks. Points
// from one achievement can complete a level or points achievement.
func (s *Service) unlockAchievements(stats *models.UserStats, prog *Progression) error {
	catalog := gamification.Achievements()
	for range len(catalog) {
		snap, err := s.snapshot(*stats)
		if err != nil {
			return fmt.Errorf("measuring achievements: %w", err)
		}
		progress, err := s.store.AchievementProgress(stats.UserID)
		if err != nil {
			return fmt.Errorf("loading achievements: %w", err)
		}

		ev := gamification.Evaluate(catalog, progress, snap, s.now())
		for i := range ev.Updated {
			if rec := ev.Updated[i]; !rec.Completed {
				if err := s.store.SaveAchievementProgress(&rec); err != nil {
					return fmt.Errorf("saving achievement progress: %w", err)
				}
			}
		}
		if len(ev.Unlocked) == 0 {
			return nil
		}

		awarded := false
		for _, def := range ev.Unlocked {
			rec := completedRecord(ev.Updated, def.ID)
			won, err := s.store.CompleteAchievement(&rec)
			if err != nil {
				return fmt.Errorf("completing achievement %s: %w", def.ID, err)
			}
			if !won {
				continue
			}
			awarded = true
			stats.AchievementsEarned++
			if err := s.credit(stats, def.Points, models.PointsAchievement, "Achievement: "+def.Title); err != nil {
				return err
			}
			prog.PointsAwarded += def.Points
			prog.NewAchievements = append(prog.NewAchievements, def)
			s.metrics.AchievementUnlocked(def.ID)
			s.events.Publish(stats.UserID, events.Event{Type: events.TypeAchievementUnlocked, Data: def})
			s.logger.Info("achievement unlocked", "user_id", stats.UserID, "achievement", def.ID)
		}
		if !awarded {
			return nil
		}
		stats.UpdatedAt = s.now()
		if err := s.store.SaveStats(stats); err != nil {
			return fmt.Errorf("saving stats: %w", err)
		}
	}
	return nil
}

func completedRecord(updated []models.AchievementProgress, id string) models.AchievementProgress {
	for _, rec := range updated {
		if rec.AchievementID == id {
			return rec
		}
	}
	return models.AchievementProgress{AchievementID: id}
}

// unlockRewards stores the unlock flag of every reward the points now cover
func (s *Service) unlockRewards(stats *models.UserStats, prog *Progression) error {
	states, err := s.store.RewardStates(stats.UserID)
	if err != nil {
		return fmt.Errorf("loading rewards: %w", err)
	}

	now := s.now()
	_, newly := gamification.EvaluateRewards(gamification.Rewards(), states, stats.TotalPoints, now)
	changed := false
	for _, def := range newly {
		won, err := s.store.UnlockReward(stats.UserID, def.ID, now)
		if err != nil {
			return fmt.Errorf("unlocking reward %s: %w", def.ID, err)
		}
		if !won {
			continue
		}
		changed = true
		stats.RewardsUnlocked++
		prog.NewRewards = append(prog.NewRewards, def)
		s.metrics.RewardUnlocked(def.ID)
		s.events.Publish(stats.UserID, events.Event{Type: events.TypeRewardUnlocked, Data: def})
	}
	if !changed {
		return nil
	}
	stats.UpdatedAt = now
	return s.store.SaveStats(stats)
}

// recordProgress runs progress for a secondary effect: failures are logged
// and reported as a nil Progression
func (s *Service) recordProgress(op, userID string, a *award) *Progression {
	prog, err := s.progress(userID, a)
	if err != nil {
		s.logger.Error("updating progression", "op", op, "user_id", userID, "error", err)
		return nil
	}
	return prog
}
