package models

import "time"

// Sentiment polarity labels
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Insight kinds
const (
	InsightEmotion    = "emotion"
	InsightPattern    = "pattern"
	InsightSuggestion = "suggestion"
	InsightSummary    = "summary"
)

// Chat senders and message kinds
const (
	SenderUser = "user"
	SenderAI   = "ai"

	MessageKindMessage    = "message"
	MessageKindSuggestion = "suggestion"
	MessageKindCrisis     = "crisis_warning"
)

// Point transaction types
const (
	PointsMood        = "mood_entry"
	PointsJournal     = "journal_entry"
	PointsAchievement = "achievement"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MoodEntry is an immutable mood log
type MoodEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"mood_score"`
	Emoji     string    `json:"mood_emoji"`
	Note      string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry is a free-text reflection. WordCount is derived from Content.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Insight is derived from a journal entry after it is saved
type Insight struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	JournalEntryID string         `json:"journal_entry_id,omitempty"`
	Kind           string         `json:"insight_type"`
	Content        string         `json:"content"`
	Confidence     float64        `json:"confidence_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ChatMessage is a single conversation turn
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Kind      string    `json:"message_type"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStats is the per-user progression row
type UserStats struct {
	UserID             string     `json:"user_id"`
	TotalPoints        int        `json:"total_points"`
	Level              int        `json:"level"`
	ExperiencePoints   int        `json:"experience_points"`
	MoodStreak         int        `json:"mood_streak"`
	JournalStreak      int        `json:"journal_streak"`
	CombinedStreak     int        `json:"combined_streak"`
	LastMoodDate       *time.Time `json:"last_mood_date,omitempty"`
	LastJournalDate    *time.Time `json:"last_journal_date,omitempty"`
	LastCombinedDate   *time.Time `json:"last_combined_date,omitempty"`
	AchievementsEarned int        `json:"achievements_earned"`
	RewardsUnlocked    int        `json:"rewards_unlocked"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// AchievementProgress is the mutable per-user half of an achievement
type AchievementProgress struct {
	UserID        string     `json:"user_id"`
	AchievementID string     `json:"achievement_id"`
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PointsAwarded int        `json:"points_awarded"`
}

// RewardState is the per-user unlock flag for a reward
type RewardState struct {
	UserID     string     `json:"user_id"`
	RewardID   string     `json:"reward_id"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// PointTransaction is an append-only points ledger row
type PointTransaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Points      int       `json:"points"`
	Type        string    `json:"transaction_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	LLM      string `json:"llm"`
	// Analysis is "local" when answers come from the keyword fallback
	Analysis string `json:"analysis"`
	Version  string `json:"version"`
}
