package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrwolf/vibenote-server/internal/classifier"
	"github.com/mrwolf/vibenote-server/internal/export"
	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/models"
)

// analysisSample is how many recent entries sentiment and trend reads cover
const analysisSample = 10

// JournalInput is a journal create or update request
type JournalInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// JournalResult is a stored entry and what it changed. Task is nil when the
// content is too short to analyse.
type JournalResult struct {
	Entry       models.JournalEntry `json:"entry"`
	Progression *Progression        `json:"progression,omitempty"`
	Task        *InsightTask        `json:"-"`
}

// JournalDetail is an entry with the insights derived from it
type JournalDetail struct {
	Entry    models.JournalEntry `json:"entry"`
	Insights []models.Insight    `json:"insights"`
}

// JournalStats summarises a user's journal
type JournalStats struct {
	TotalEntries  int    `json:"totalEntries"`
	AverageWords  int    `json:"averageWords"`
	MostActiveDay string `json:"mostActiveDay"`
	TotalWords    int    `json:"totalWords"`
}

func (in JournalInput) validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return invalid("content", "must not be empty")
	}
	return nil
}

// SaveJournal stores an entry, starts its insight task and awards its points
func (s *Service) SaveJournal(ctx context.Context, userID string, in JournalInput) (*JournalResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	entry := models.JournalEntry{
		ID:        newID(),
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		WordCount: classifier.WordCount(in.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	// claimed before the entry becomes visible so backfill never picks it up
	analyse := hasContent(entry.Content) && s.claimEntry(entry.ID)
	if err := s.store.CreateJournal(&entry); err != nil {
		if analyse {
			s.releaseEntry(entry.ID)
		}
		return nil, fmt.Errorf("storing journal entry: %w", err)
	}

	res := &JournalResult{Entry: entry}
	if analyse {
		res.Task = s.startInsightTask(entry)
	}
	res.Progression = s.recordProgress("save_journal", userID, &award{
		activity:    gamification.ActivityJournal,
		points:      JournalPoints,
		txType:      models.PointsJournal,
		description: "Journal entry written",
	})
	return res, nil
}

// Journal returns one entry with its insights
func (s *Service) Journal(ctx context.Context, userID, id string) (*JournalDetail, error) {
	entry, err := s.store.GetJournal(userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading journal entry: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	found, err := s.store.InsightsForEntry(userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading insights: %w", err)
	}
	return &JournalDetail{Entry: *entry, Insights: nonNil(found)}, nil
}

// Journals returns entries newest first
func (s *Service) Journals(ctx context.Context, userID string, limit, offset int) ([]models.JournalEntry, error) {
	entries, err := s.store.ListJournals(userID, pageSize(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	return nonNil(entries), nil
}

// UpdateJournal rewrites an entry's title and content. Insights already
// derived from the old content are kept.
func (s *Service) UpdateJournal(ctx context.Context, userID, id string, in JournalInput) (*models.JournalEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	entry, err := s.store.GetJournal(userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading journal entry: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}

	entry.Title = strings.TrimSpace(in.Title)
	entry.Content = in.Content
	entry.WordCount = classifier.WordCount(in.Content)
	entry.UpdatedAt = s.now()
	ok, err := s.store.UpdateJournal(entry)
	if err != nil {
		return nil, fmt.Errorf("updating journal entry: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// DeleteJournal removes an entry and its insights. Points already earned stay.
func (s *Service) DeleteJournal(ctx context.Context, userID, id string) error {
	ok, err := s.store.DeleteJournal(userID, id)
	if err != nil {
		return fmt.Errorf("deleting journal entry: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// JournalStats counts entries and words and finds the busiest weekday
func (s *Service) JournalStats(ctx context.Context, userID string) (*JournalStats, error) {
	entries, err := s.store.ListJournals(userID, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("loading journal entries: %w", err)
	}
	return summarizeJournal(entries, s.tracker.Location()), nil
}

// summarizeJournal expects entries newest first. Weekday ties go to the day
// seen first.
func summarizeJournal(entries []models.JournalEntry, loc *time.Location) *JournalStats {
	stats := &JournalStats{MostActiveDay: "None"}
	if len(entries) == 0 {
		return stats
	}

	counts := make(map[time.Weekday]int)
	var order []time.Weekday
	for _, e := range entries {
		stats.TotalWords += e.WordCount
		day := e.CreatedAt.In(loc).Weekday()
		if counts[day] == 0 {
			order = append(order, day)
		}
		counts[day]++
	}

	best := order[0]
	for _, day := range order[1:] {
		if counts[day] > counts[best] {
			best = day
		}
	}
	stats.TotalEntries = len(entries)
	stats.AverageWords = int(float64(stats.TotalWords)/float64(len(entries)) + 0.5)
	stats.MostActiveDay = best.String()
	return stats
}

func (s *Service) recentContents(userID string, n int) ([]string, error) {
	entries, err := s.store.ListJournals(userID, n, 0)
	if err != nil {
		return nil, fmt.Errorf("loading journal entries: %w", err)
	}
	contents := make([]string, 0, len(entries))
	for _, e := range entries {
		contents = append(contents, e.Content)
	}
	return contents, nil
}

// JournalSentiment reads the overall sentiment of the recent entries
func (s *Service) JournalSentiment(ctx context.Context, userID string) (insights.SentimentAnalysis, error) {
	contents, err := s.recentContents(userID, analysisSample)
	if err != nil {
		return insights.SentimentAnalysis{}, err
	}
	return s.analyzer.AnalyzeSentiment(ctx, contents), nil
}

// JournalTrends finds recurring patterns across the recent entries
func (s *Service) JournalTrends(ctx context.Context, userID string) ([]insights.Draft, error) {
	contents, err := s.recentContents(userID, analysisSample)
	if err != nil {
		return nil, err
	}
	return nonNil(s.analyzer.AnalyzeTrends(ctx, contents)), nil
}

// ExportJournal writes every entry to markdown. It requires the export reward.
func (s *Service) ExportJournal(ctx context.Context, userID string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, errors.New("export is not configured")
	}
	def, _ := gamification.FindReward(gamification.RewardExportData)
	unlocked, err := s.rewardUnlocked(userID, def)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, ErrRewardLocked
	}

	journals, err := s.store.ListJournals(userID, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("loading journal entries: %w", err)
	}
	entries := make([]export.Entry, 0, len(journals))
	for _, j := range journals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := s.store.InsightsForEntry(userID, j.ID)
		if err != nil {
			return nil, fmt.Errorf("loading insights: %w", err)
		}
		e := export.Entry{Journal: j, Insights: found}
		e.Sentiment, e.Themes = summaryMetadata(found)
		entries = append(entries, e)
	}

	res, err := s.exporter.WriteJournal(userID, entries, s.now())
	if err != nil {
		return nil, fmt.Errorf("exporting journal: %w", err)
	}
	s.logger.Info("journal exported", "user_id", userID, "files", len(res.Files))
	return res, nil
}

// summaryMetadata pulls sentiment and themes from an entry's summary insight.
// Stored metadata comes back from JSON, so themes are []any.
func summaryMetadata(found []models.Insight) (string, []string) {
	for _, in := range found {
		if in.Kind != models.InsightSummary {
			continue
		}
		sentiment, _ := in.Metadata["sentiment"].(string)
		var themes []string
		switch v := in.Metadata["themes"].(type) {
		case []string:
			themes = v
		case []any:
			for _, t := range v {
				if str, ok := t.(string); ok {
					themes = append(themes, str)
				}
			}
		}
		return sentiment, themes
	}
	return "", nil
}
