package gamification

// Metric names the statistic an achievement is measured against
type Metric string

const (
	MetricMoodPresence    Metric = "mood_presence"
	MetricJournalPresence Metric = "journal_presence"
	MetricInsightPresence Metric = "insight_presence"
	MetricMoodStreak      Metric = "mood_streak"
	MetricJournalStreak   Metric = "journal_streak"
	MetricCombinedStreak  Metric = "combined_streak"
	MetricLevel           Metric = "level"
	MetricPoints          Metric = "points"
	MetricWords           Metric = "journal_words"
	MetricInsights        Metric = "insights"
	MetricWellnessTips    Metric = "wellness_tips"
)

// Achievement categories
const (
	CategoryMood     = "mood"
	CategoryJournal  = "journal"
	CategoryStreak   = "streak"
	CategoryInsights = "insights"
	CategoryWellness = "wellness"
)

// AchievementDef is an immutable catalog entry
type AchievementDef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Requirement int    `json:"requirement"`
	Points      int    `json:"points"`
	Metric      Metric `json:"-"`
}

// RewardDef is an immutable catalog entry
type RewardDef struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	PointsRequired int    `json:"points_required"`
}

// RewardExportData gates the journal export
const RewardExportData = "export_data"

var achievements = []AchievementDef{
	{"first_mood", "First Step", "Log your first mood", "🌱", CategoryMood, 1, 10, MetricMoodPresence},
	{"mood_streak_7", "Week Warrior", "Log mood for 7 days in a row", "📅", CategoryMood, 7, 50, MetricMoodStreak},
	{"mood_streak_30", "Monthly Master", "Log mood for 30 days in a row", "🏆", CategoryMood, 30, 200, MetricMoodStreak},
	{"mood_streak_100", "Century Club", "Log mood for 100 days in a row", "💎", CategoryMood, 100, 500, MetricMoodStreak},

	{"first_journal", "Storyteller", "Write your first journal entry", "✍️", CategoryJournal, 1, 15, MetricJournalPresence},
	{"journal_streak_7", "Daily Writer", "Write journal entries for 7 days in a row", "📝", CategoryJournal, 7, 75, MetricJournalStreak},
	{"journal_streak_30", "Reflection Master", "Write journal entries for 30 days in a row", "📚", CategoryJournal, 30, 300, MetricJournalStreak},
	{"journal_words_1000", "Word Smith", "Write 1000+ words total", "📖", CategoryJournal, 1000, 100, MetricWords},

	{"first_insight", "Self Discovery", "Get your first AI insight", "💡", CategoryInsights, 1, 25, MetricInsightPresence},
	{"insights_10", "Pattern Finder", "Get 10 AI insights", "🔍", CategoryInsights, 10, 150, MetricInsights},
	{"insights_50", "Mind Reader", "Get 50 AI insights", "🧠", CategoryInsights, 50, 400, MetricInsights},

	{"wellness_tips_5", "Wellness Seeker", "Receive 5 wellness tips", "🧘‍♀️", CategoryWellness, 5, 30, MetricWellnessTips},
	{"wellness_tips_20", "Wellness Warrior", "Receive 20 wellness tips", "🌟", CategoryWellness, 20, 120, MetricWellnessTips},

	{"combined_streak_7", "Balanced Life", "Log both mood and journal for 7 days in a row", "⚖️", CategoryStreak, 7, 100, MetricCombinedStreak},
	{"combined_streak_30", "Life Master", "Log both mood and journal for 30 days in a row", "👑", CategoryStreak, 30, 500, MetricCombinedStreak},
	{"level_5", "Rising Star", "Reach level 5", "⭐", CategoryStreak, 5, 200, MetricLevel},
	{"level_10", "Vibe Master", "Reach level 10", "🌟", CategoryStreak, 10, 500, MetricLevel},
	{"level_20", "Vibe Legend", "Reach level 20", "👑", CategoryStreak, 20, 1000, MetricLevel},
	{"points_1000", "Point Collector", "Earn 1000 points", "💰", CategoryStreak, 1000, 100, MetricPoints},
	{"points_5000", "Point Master", "Earn 5000 points", "💎", CategoryStreak, 5000, 500, MetricPoints},
}

var rewards = []RewardDef{
	{"theme_dark", "Dark Theme", "Unlock dark mode for the app", "🌙", 100},
	{"theme_rainbow", "Rainbow Theme", "Unlock colorful rainbow theme", "🌈", 300},
	{RewardExportData, "Data Export", "Export your journal as markdown", "📄", 500},
	{"custom_insights", "Custom Insights", "Get personalized AI insights", "🤖", 1000},
	{"priority_support", "Priority Support", "Get priority customer support", "🎯", 2000},
}

// Achievements returns a copy of the achievement catalog in display order
func Achievements() []AchievementDef {
	out := make([]AchievementDef, len(achievements))
	copy(out, achievements)
	return out
}

// Rewards returns a copy of the reward catalog in unlock order
func Rewards() []RewardDef {
	out := make([]RewardDef, len(rewards))
	copy(out, rewards)
	return out
}

// FindReward looks up a reward definition by id
func FindReward(id string) (RewardDef, bool) {
	for _, r := range rewards {
		if r.ID == id {
			return r, true
		}
	}
	return RewardDef{}, false
}
