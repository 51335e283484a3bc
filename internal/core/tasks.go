package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/models"
)

// minInsightChars is the trimmed content length an entry must exceed before
// insights are generated for it
const minInsightChars = 3

// Insight task outcomes, also used as metric labels
const (
	TaskCompleted = "completed"
	TaskFailed    = "failed"
	TaskCancelled = "cancelled"
)

// InsightResult is the outcome of an insight task
type InsightResult struct {
	EntryID  string
	Insights []models.Insight
	Err      error
}

// InsightTask generates and stores the insights of one journal entry in the
// background. Callers may ignore it.
type InsightTask struct {
	entryID string
	cancel  context.CancelFunc
	done    chan struct{}
	result  InsightResult
}

// EntryID is the journal entry the task works on
func (t *InsightTask) EntryID() string {
	return t.entryID
}

// Done is closed when the task has finished
func (t *InsightTask) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (t *InsightTask) Result() InsightResult {
	select {
	case <-t.done:
		return t.result
	default:
		return InsightResult{EntryID: t.entryID}
	}
}

// Wait blocks until the task finishes or ctx is done
func (t *InsightTask) Wait(ctx context.Context) (InsightResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return InsightResult{EntryID: t.entryID}, ctx.Err()
	}
}

// Cancel stops the task. Insights already stored stay stored.
func (t *InsightTask) Cancel() {
	t.cancel()
}

// startInsightTask runs insight generation for entry under the service
// lifetime. A request context ending does not stop it. The caller must hold
// the entry's claim; the task releases it when it ends.
func (s *Service) startInsightTask(entry models.JournalEntry) *InsightTask {
	ctx, cancel := context.WithCancel(s.ctx)
	task := &InsightTask{
		entryID: entry.ID,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer close(task.done)
		defer cancel()
		defer s.releaseEntry(entry.ID)

		stored, err := s.generateInsights(ctx, entry)
		task.result = InsightResult{EntryID: entry.ID, Insights: stored, Err: err}

		switch {
		case err != nil && ctx.Err() != nil:
			s.metrics.InsightTask(TaskCancelled)
			s.logger.Info("insight task cancelled", "user_id", entry.UserID, "entry_id", entry.ID)
			return
		case err != nil:
			s.metrics.InsightTask(TaskFailed)
			s.logger.Error("generating insights", "user_id", entry.UserID, "entry_id", entry.ID, "error", err)
			return
		}
		s.metrics.InsightTask(TaskCompleted)
		s.events.Publish(entry.UserID, events.Event{
			Type: events.TypeInsightsReady,
			Data: map[string]any{"journal_entry_id": entry.ID, "count": len(stored)},
		})
		// insight and wellness-tip achievements depend on what was just stored
		s.recordProgress("insight_task", entry.UserID, nil)
	}()
	return task
}

// generateInsights analyses one entry and stores the resulting insights.
// The analysis itself never fails; only storage and cancellation do.
func (s *Service) generateInsights(ctx context.Context, entry models.JournalEntry) ([]models.Insight, error) {
	analysis := s.analyzer.AnalyzeJournal(ctx, entry.Content)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drafts := insights.BuildInsights(analysis)
	stored := make([]models.Insight, 0, len(drafts))
	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		in := models.Insight{
			ID:             newID(),
			UserID:         entry.UserID,
			JournalEntryID: entry.ID,
			Kind:           d.Kind,
			Content:        d.Content,
			Confidence:     d.Confidence,
			Metadata:       d.Metadata,
			CreatedAt:      s.now(),
		}
		if err := s.store.CreateInsight(&in); err != nil {
			return stored, fmt.Errorf("storing %s insight: %w", d.Kind, err)
		}
		stored = append(stored, in)
	}
	return stored, nil
}

// BackfillInsights generates insights for up to limit entries that have none,
// oldest first. It returns how many entries were processed.
func (s *Service) BackfillInsights(ctx context.Context, limit int) (int, error) {
	entries, err := s.store.JournalsWithoutInsights(minInsightChars, limit)
	if err != nil {
		return 0, fmt.Errorf("finding entries without insights: %w", err)
	}

	users := make(map[string]bool)
	done := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		ok, err := s.backfillEntry(ctx, e)
		if err != nil {
			s.logger.Warn("backfilling insights", "user_id", e.UserID, "entry_id", e.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		users[e.UserID] = true
		done++
	}

	for userID := range users {
		s.recordProgress("backfill", userID, nil)
	}
	if done > 0 {
		s.logger.Info("backfilled insights", "entries", done, "users", len(users))
	}
	return done, nil
}

// backfillEntry generates insights for e unless a task owns it or insights
// were stored since the entry was listed.
func (s *Service) backfillEntry(ctx context.Context, e models.JournalEntry) (bool, error) {
	if !s.claimEntry(e.ID) {
		return false, nil
	}
	defer s.releaseEntry(e.ID)

	existing, err := s.store.InsightsForEntry(e.UserID, e.ID)
	if err != nil {
		return false, fmt.Errorf("checking existing insights: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := s.generateInsights(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}

func hasContent(content string) bool {
	return len(strings.TrimSpace(content)) > minInsightChars
}
