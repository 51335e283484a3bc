package gamification

import (
	"time"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// ExperiencePerLevel is the experience span of one level
const ExperiencePerLevel = 100

// Level derives the level from experience
func Level(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return experience/ExperiencePerLevel + 1
}

// ExperienceToNextLevel is the experience threshold shown for a level
func ExperienceToNextLevel(level int) int {
	return level * ExperiencePerLevel
}

// ApplyPoints credits points as both total and experience and recomputes the
// level. It reports whether the level went up.
func ApplyPoints(stats *models.UserStats, points int) bool {
	before := stats.Level
	stats.TotalPoints += points
	stats.ExperiencePoints += points
	stats.Level = Level(stats.ExperiencePoints)
	return stats.Level > before
}

// Snapshot is everything achievement rules are measured against
type Snapshot struct {
	Stats        models.UserStats
	MoodEntries  int
	Journals     int
	TotalWords   int
	Insights     int
	WellnessTips int
}

// Value returns the current measure of a metric
func (s Snapshot) Value(m Metric) int {
	switch m {
	case MetricMoodPresence:
		return presence(s.MoodEntries)
	case MetricJournalPresence:
		return presence(s.Journals)
	case MetricInsightPresence:
		return presence(s.Insights)
	case MetricMoodStreak:
		return s.Stats.MoodStreak
	case MetricJournalStreak:
		return s.Stats.JournalStreak
	case MetricCombinedStreak:
		return s.Stats.CombinedStreak
	case MetricLevel:
		return s.Stats.Level
	case MetricPoints:
		return s.Stats.TotalPoints
	case MetricWords:
		return s.TotalWords
	case MetricInsights:
		return s.Insights
	case MetricWellnessTips:
		return s.WellnessTips
	default:
		return 0
	}
}

func presence(n int) int {
	if n > 0 {
		return 1
	}
	return 0
}

// Evaluation is the outcome of one pass over the achievement catalog
type Evaluation struct {
	// Updated holds every record whose progress moved, completed or not
	Updated []models.AchievementProgress
	// Unlocked holds the definitions that crossed their requirement in this pass
	Unlocked []AchievementDef
}

// Evaluate measures every incomplete achievement against snap. Progress never
// decreases and completed records are never touched. progress is keyed by
// achievement id and may be missing entries.
func Evaluate(catalog []AchievementDef, progress map[string]models.AchievementProgress, snap Snapshot, now time.Time) Evaluation {
	var ev Evaluation
	for _, def := range catalog {
		rec, ok := progress[def.ID]
		if !ok {
			rec = models.AchievementProgress{UserID: snap.Stats.UserID, AchievementID: def.ID}
		}
		if rec.Completed {
			continue
		}

		value := max(rec.Progress, snap.Value(def.Metric))
		if value == rec.Progress && value < def.Requirement {
			continue
		}

		rec.Progress = value
		if value >= def.Requirement {
			completedAt := now
			rec.Completed = true
			rec.CompletedAt = &completedAt
			rec.PointsAwarded = def.Points
			ev.Unlocked = append(ev.Unlocked, def)
		}
		ev.Updated = append(ev.Updated, rec)
	}
	return ev
}

// AchievementView joins a definition with a user's progress on it
type AchievementView struct {
	AchievementDef
	Progress    int        `json:"current_progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AchievementViews joins the catalog with stored progress in catalog order
func AchievementViews(catalog []AchievementDef, progress map[string]models.AchievementProgress) []AchievementView {
	views := make([]AchievementView, 0, len(catalog))
	for _, def := range catalog {
		rec := progress[def.ID]
		views = append(views, AchievementView{
			AchievementDef: def,
			Progress:       rec.Progress,
			Completed:      rec.Completed,
			CompletedAt:    rec.CompletedAt,
		})
	}
	return views
}

// RewardView joins a reward definition with a user's unlock state
type RewardView struct {
	RewardDef
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// EvaluateRewards computes the unlock state of every reward. A reward is
// unlocked when its stored flag is set or the points threshold is met, so it
// never re-locks. newly lists rewards that are unlocked but not yet stored.
func EvaluateRewards(catalog []RewardDef, states map[string]models.RewardState, totalPoints int, now time.Time) (views []RewardView, newly []RewardDef) {
	views = make([]RewardView, 0, len(catalog))
	for _, def := range catalog {
		st := states[def.ID]
		view := RewardView{RewardDef: def, Unlocked: st.Unlocked, UnlockedAt: st.UnlockedAt}
		if !st.Unlocked && totalPoints >= def.PointsRequired {
			unlockedAt := now
			view.Unlocked = true
			view.UnlockedAt = &unlockedAt
			newly = append(newly, def)
		}
		views = append(views, view)
	}
	return views, newly
}

// IsRewardUnlocked reports whether a single reward is available
func IsRewardUnlocked(def RewardDef, state models.RewardState, totalPoints int) bool {
	return state.Unlocked || totalPoints >= def.PointsRequired
}

// StreakView is one streak counter as shown to the client
type StreakView struct {
	Type         string     `json:"type"`
	Current      int        `json:"current_streak"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// StatsView is the read model of a user's progression
type StatsView struct {
	TotalPoints           int          `json:"total_points"`
	Level                 int          `json:"level"`
	Experience            int          `json:"experience"`
	ExperienceToNextLevel int          `json:"experience_to_next_level"`
	AchievementsEarned    int          `json:"achievements_earned"`
	TotalAchievements     int          `json:"total_achievements"`
	RewardsUnlocked       int          `json:"rewards_unlocked"`
	Streaks               []StreakView `json:"current_streaks"`
}

// NewStatsView builds the read model from a stats row
func NewStatsView(stats models.UserStats) StatsView {
	return StatsView{
		TotalPoints:           stats.TotalPoints,
		Level:                 Level(stats.ExperiencePoints),
		Experience:            stats.ExperiencePoints,
		ExperienceToNextLevel: ExperienceToNextLevel(Level(stats.ExperiencePoints)),
		AchievementsEarned:    stats.AchievementsEarned,
		TotalAchievements:     len(achievements),
		RewardsUnlocked:       stats.RewardsUnlocked,
		Streaks: []StreakView{
			{Type: string(ActivityMood), Current: stats.MoodStreak, LastActivity: stats.LastMoodDate},
			{Type: string(ActivityJournal), Current: stats.JournalStreak, LastActivity: stats.LastJournalDate},
			{Type: "combined", Current: stats.CombinedStreak, LastActivity: stats.LastCombinedDate},
		},
	}
}
