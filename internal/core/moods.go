package core

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/models"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 365
	moodNoteSample   = 30
	// a half-average must move by more than this to count as a trend
	trendThreshold = 0.5
)

// Mood trend labels
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

var moodEmoji = map[int]string{1: "😡", 2: "😔", 3: "😐", 4: "🙂", 5: "😊"}

// MoodInput is a mood log request
type MoodInput struct {
	Score int    `json:"mood_score"`
	Emoji string `json:"mood_emoji"`
	Note  string `json:"notes"`
}

// MoodResult is a stored mood and what it changed
type MoodResult struct {
	Entry       models.MoodEntry `json:"entry"`
	Progression *Progression     `json:"progression,omitempty"`
}

// MoodPoint is one score on a given day
type MoodPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// MoodStats summarises the moods of a period
type MoodStats struct {
	Average float64     `json:"average"`
	Count   int         `json:"count"`
	Trend   string      `json:"trend"`
	Data    []MoodPoint `json:"data"`
}

// SaveMood stores a mood and then awards its points. The entry is stored even
// when the progression update fails.
func (s *Service) SaveMood(ctx context.Context, userID string, in MoodInput) (*MoodResult, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, invalid("mood_score", "must be between 1 and 5")
	}
	if in.Emoji == "" {
		in.Emoji = moodEmoji[in.Score]
	}

	entry := models.MoodEntry{
		ID:        newID(),
		UserID:    userID,
		Score:     in.Score,
		Emoji:     in.Emoji,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateMood(&entry); err != nil {
		return nil, fmt.Errorf("storing mood: %w", err)
	}

	prog := s.recordProgress("save_mood", userID, &award{
		activity:    gamification.ActivityMood,
		points:      MoodPoints,
		txType:      models.PointsMood,
		description: "Mood entry logged",
	})
	return &MoodResult{Entry: entry, Progression: prog}, nil
}

// Moods returns the newest moods first
func (s *Service) Moods(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	moods, err := s.store.ListMoods(userID, pageSize(limit))
	if err != nil {
		return nil, fmt.Errorf("listing moods: %w", err)
	}
	return nonNil(moods), nil
}

// TodayMood returns the most recent mood logged today, or nil
func (s *Service) TodayMood(ctx context.Context, userID string) (*models.MoodEntry, error) {
	start, end := s.dayBounds()
	m, err := s.store.MoodBetween(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading today's mood: %w", err)
	}
	return m, nil
}

// MoodStats summarises the moods of the last days days
func (s *Service) MoodStats(ctx context.Context, userID string, days int) (*MoodStats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	days = min(days, maxStatsDays)

	moods, err := s.store.MoodsSince(userID, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("loading moods: %w", err)
	}

	loc := s.tracker.Location()
	points := make([]MoodPoint, 0, len(moods))
	for _, m := range moods {
		points = append(points, MoodPoint{
			Date:  m.CreatedAt.In(loc).Format(gamification.DateLayout),
			Score: m.Score,
		})
	}
	return summarizeMoods(points), nil
}

// summarizeMoods compares the average of the later half of the period with
// the earlier half. Points are in chronological order.
func summarizeMoods(points []MoodPoint) *MoodStats {
	stats := &MoodStats{Trend: TrendStable, Data: points}
	if len(points) == 0 {
		return stats
	}

	stats.Count = len(points)
	stats.Average = round2(averageScore(points))

	half := len(points) / 2
	if half == 0 {
		return stats
	}
	diff := averageScore(points[half:]) - averageScore(points[:half])
	switch {
	case diff > trendThreshold:
		stats.Trend = TrendImproving
	case diff < -trendThreshold:
		stats.Trend = TrendDeclining
	}
	return stats
}

func averageScore(points []MoodPoint) float64 {
	sum := 0
	for _, p := range points {
		sum += p.Score
	}
	return float64(sum) / float64(len(points))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// MoodPatterns reads the recent mood notes for emotions and triggers
func (s *Service) MoodPatterns(ctx context.Context, userID string) (insights.MoodPatterns, error) {
	notes, err := s.store.MoodNotes(userID, moodNoteSample)
	if err != nil {
		return insights.MoodPatterns{}, fmt.Errorf("loading mood notes: %w", err)
	}
	return s.analyzer.AnalyzeMoodPatterns(ctx, notes), nil
}
