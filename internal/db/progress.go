package db

import (
	"database/sql"
	"time"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// GetStats returns a user's progression row, or nil if none exists yet
func (db *DB) GetStats(userID string) (*models.UserStats, error) {
	var s models.UserStats
	var lastMood, lastJournal, lastCombined sql.NullString
	var updatedStr string
	err := db.conn.QueryRow(`
		SELECT user_id, total_points, level, experience_points,
		       mood_streak, journal_streak, combined_streak,
		       last_mood_date, last_journal_date, last_combined_date,
		       achievements_earned, rewards_unlocked, updated_at
		FROM user_stats
		WHERE user_id = ?
	`, userID).Scan(&s.UserID, &s.TotalPoints, &s.Level, &s.ExperiencePoints,
		&s.MoodStreak, &s.JournalStreak, &s.CombinedStreak,
		&lastMood, &lastJournal, &lastCombined,
		&s.AchievementsEarned, &s.RewardsUnlocked, &updatedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.LastMoodDate = parseDate(lastMood)
	s.LastJournalDate = parseDate(lastJournal)
	s.LastCombinedDate = parseDate(lastCombined)
	s.UpdatedAt = parseTime(updatedStr)
	return &s, nil
}

// EnsureStats returns the user's progression row, creating a fresh one at
// level 1 if it does not exist
func (db *DB) EnsureStats(userID string, now time.Time) (*models.UserStats, error) {
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO user_stats (user_id, level, updated_at) VALUES (?, 1, ?)
	`, userID, formatTime(now))
	if err != nil {
		return nil, err
	}
	return db.GetStats(userID)
}

// SaveStats writes every progression field
func (db *DB) SaveStats(s *models.UserStats) error {
	_, err := db.conn.Exec(`
		UPDATE user_stats
		SET total_points = ?, level = ?, experience_points = ?,
		    mood_streak = ?, journal_streak = ?, combined_streak = ?,
		    last_mood_date = ?, last_journal_date = ?, last_combined_date = ?,
		    achievements_earned = ?, rewards_unlocked = ?, updated_at = ?
		WHERE user_id = ?
	`, s.TotalPoints, s.Level, s.ExperiencePoints,
		s.MoodStreak, s.JournalStreak, s.CombinedStreak,
		formatDate(s.LastMoodDate), formatDate(s.LastJournalDate), formatDate(s.LastCombinedDate),
		s.AchievementsEarned, s.RewardsUnlocked, formatTime(s.UpdatedAt), s.UserID)
	return err
}

// LogPoints appends to the points ledger
func (db *DB) LogPoints(p *models.PointTransaction) error {
	_, err := db.conn.Exec(`
		INSERT INTO point_transactions (id, user_id, points, transaction_type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Points, p.Type, p.Description, formatTime(p.CreatedAt))
	return err
}

// PointTransactions returns the newest ledger rows first
func (db *DB) PointTransactions(userID string, limit int) ([]models.PointTransaction, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, points, transaction_type, description, created_at
		FROM point_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]models.PointTransaction, 0)
	for rows.Next() {
		var p models.PointTransaction
		var createdStr string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Points, &p.Type, &p.Description, &createdStr); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdStr)
		txns = append(txns, p)
	}
	return txns, rows.Err()
}

// AchievementProgress returns a user's stored achievement records keyed by achievement id
func (db *DB) AchievementProgress(userID string) (map[string]models.AchievementProgress, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, achievement_id, progress, completed, completed_at, points_awarded
		FROM user_achievements
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make(map[string]models.AchievementProgress)
	for rows.Next() {
		var p models.AchievementProgress
		var completedAt sql.NullString
		if err := rows.Scan(&p.UserID, &p.AchievementID, &p.Progress, &p.Completed, &completedAt, &p.PointsAwarded); err != nil {
			return nil, err
		}
		p.CompletedAt = parseNullTime(completedAt)
		progress[p.AchievementID] = p
	}
	return progress, rows.Err()
}

// SaveAchievementProgress records progress on an incomplete achievement.
// Stored progress never decreases and completed records are left alone.
func (db *DB) SaveAchievementProgress(p *models.AchievementProgress) error {
	_, err := db.conn.Exec(`
		INSERT INTO user_achievements (user_id, achievement_id, progress)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, achievement_id) DO UPDATE
		SET progress = MAX(user_achievements.progress, excluded.progress)
		WHERE user_achievements.completed = 0
	`, p.UserID, p.AchievementID, p.Progress)
	return err
}

// CompleteAchievement marks an achievement completed. It returns true only
// for the call that actually completed it, so points are awarded once.
func (db *DB) CompleteAchievement(p *models.AchievementProgress) (bool, error) {
	completedAt := time.Now()
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}
	result, err := db.conn.Exec(`
		INSERT INTO user_achievements (user_id, achievement_id, progress, completed, completed_at, points_awarded)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (user_id, achievement_id) DO UPDATE
		SET progress = MAX(user_achievements.progress, excluded.progress),
		    completed = 1,
		    completed_at = excluded.completed_at,
		    points_awarded = excluded.points_awarded
		WHERE user_achievements.completed = 0
	`, p.UserID, p.AchievementID, p.Progress, formatTime(completedAt), p.PointsAwarded)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// RewardStates returns a user's stored reward flags keyed by reward id
func (db *DB) RewardStates(userID string) (map[string]models.RewardState, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, reward_id, unlocked, unlocked_at
		FROM user_rewards
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(map[string]models.RewardState)
	for rows.Next() {
		var s models.RewardState
		var unlockedAt sql.NullString
		if err := rows.Scan(&s.UserID, &s.RewardID, &s.Unlocked, &unlockedAt); err != nil {
			return nil, err
		}
		s.UnlockedAt = parseNullTime(unlockedAt)
		states[s.RewardID] = s
	}
	return states, rows.Err()
}

// UnlockReward stores an unlock flag. It returns true only for the call that set it.
func (db *DB) UnlockReward(userID, rewardID string, at time.Time) (bool, error) {
	result, err := db.conn.Exec(`
		INSERT INTO user_rewards (user_id, reward_id, unlocked, unlocked_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (user_id, reward_id) DO UPDATE
		SET unlocked = 1, unlocked_at = excluded.unlocked_at
		WHERE user_rewards.unlocked = 0
	`, userID, rewardID, formatTime(at))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
