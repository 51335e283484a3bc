package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// CreateMood stores a mood entry
func (db *DB) CreateMood(m *models.MoodEntry) error {
	_, err := db.conn.Exec(`
		INSERT INTO mood_entries (id, user_id, mood_score, mood_emoji, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.Score, m.Emoji, m.Note, formatTime(m.CreatedAt))
	return err
}

const moodColumns = `id, user_id, mood_score, mood_emoji, notes, created_at`

func scanMoods(rows *sql.Rows) ([]models.MoodEntry, error) {
	defer rows.Close()

	moods := make([]models.MoodEntry, 0)
	for rows.Next() {
		var m models.MoodEntry
		var createdStr string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Score, &m.Emoji, &m.Note, &createdStr); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdStr)
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

// ListMoods returns the newest mood entries first
func (db *DB) ListMoods(userID string, limit int) ([]models.MoodEntry, error) {
	rows, err := db.conn.Query(`
		SELECT `+moodColumns+`
		FROM mood_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanMoods(rows)
}

// MoodBetween returns the most recent mood logged in [from, to), or nil
func (db *DB) MoodBetween(userID string, from, to time.Time) (*models.MoodEntry, error) {
	var m models.MoodEntry
	var createdStr string
	err := db.conn.QueryRow(`
		SELECT `+moodColumns+`
		FROM mood_entries
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, userID, formatTime(from), formatTime(to)).Scan(&m.ID, &m.UserID, &m.Score, &m.Emoji, &m.Note, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.CreatedAt = parseTime(createdStr)
	return &m, nil
}

// MoodsSince returns moods logged at or after since, oldest first
func (db *DB) MoodsSince(userID string, since time.Time) ([]models.MoodEntry, error) {
	rows, err := db.conn.Query(`
		SELECT `+moodColumns+`
		FROM mood_entries
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, rowid ASC
	`, userID, formatTime(since))
	if err != nil {
		return nil, err
	}
	return scanMoods(rows)
}

// MoodNotes returns the newest non-empty mood notes
func (db *DB) MoodNotes(userID string, limit int) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT notes FROM mood_entries
		WHERE user_id = ? AND TRIM(notes) != ''
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// CountMoods returns how many moods a user has logged
func (db *DB) CountMoods(userID string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM mood_entries WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// CreateJournal stores a journal entry
func (db *DB) CreateJournal(e *models.JournalEntry) error {
	_, err := db.conn.Exec(`
		INSERT INTO journal_entries (id, user_id, title, content, word_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Title, e.Content, e.WordCount, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	return err
}

const journalColumns = `id, user_id, title, content, word_count, created_at, updated_at`

func scanJournals(rows *sql.Rows) ([]models.JournalEntry, error) {
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		var e models.JournalEntry
		var createdStr, updatedStr string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.WordCount, &createdStr, &updatedStr); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdStr)
		e.UpdatedAt = parseTime(updatedStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetJournal returns one of a user's entries, or nil
func (db *DB) GetJournal(userID, id string) (*models.JournalEntry, error) {
	var e models.JournalEntry
	var createdStr, updatedStr string
	err := db.conn.QueryRow(`
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE user_id = ? AND id = ?
	`, userID, id).Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.WordCount, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(createdStr)
	e.UpdatedAt = parseTime(updatedStr)
	return &e, nil
}

// ListJournals returns entries newest first
func (db *DB) ListJournals(userID string, limit, offset int) ([]models.JournalEntry, error) {
	rows, err := db.conn.Query(`
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanJournals(rows)
}

// UpdateJournal rewrites title, content and word count
func (db *DB) UpdateJournal(e *models.JournalEntry) (bool, error) {
	result, err := db.conn.Exec(`
		UPDATE journal_entries
		SET title = ?, content = ?, word_count = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, e.Title, e.Content, e.WordCount, formatTime(e.UpdatedAt), e.UserID, e.ID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// DeleteJournal removes an entry and the insights derived from it
func (db *DB) DeleteJournal(userID, id string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM journal_entries WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil || affected == 0 {
		return false, err
	}
	if _, err := tx.Exec(`DELETE FROM ai_insights WHERE user_id = ? AND journal_entry_id = ?`, userID, id); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// JournalTotals returns the entry count and summed word count
func (db *DB) JournalTotals(userID string) (count, words int, err error) {
	err = db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(word_count), 0) FROM journal_entries WHERE user_id = ?
	`, userID).Scan(&count, &words)
	return count, words, err
}

// JournalsWithoutInsights returns entries across all users that have no
// insights yet and whose trimmed content is longer than minChars, oldest first
func (db *DB) JournalsWithoutInsights(minChars, limit int) ([]models.JournalEntry, error) {
	rows, err := db.conn.Query(`
		SELECT `+journalColumns+`
		FROM journal_entries j
		WHERE LENGTH(TRIM(j.content)) > ?
		  AND NOT EXISTS (SELECT 1 FROM ai_insights i WHERE i.journal_entry_id = j.id)
		ORDER BY created_at ASC
		LIMIT ?
	`, minChars, limit)
	if err != nil {
		return nil, err
	}
	return scanJournals(rows)
}

// CreateInsight stores one insight
func (db *DB) CreateInsight(in *models.Insight) error {
	meta := []byte("{}")
	if len(in.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(in.Metadata); err != nil {
			return err
		}
	}
	_, err := db.conn.Exec(`
		INSERT INTO ai_insights (id, user_id, journal_entry_id, insight_type, content, confidence_score, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID, in.UserID, in.JournalEntryID, in.Kind, in.Content, in.Confidence, string(meta), formatTime(in.CreatedAt))
	return err
}

const insightColumns = `id, user_id, journal_entry_id, insight_type, content, confidence_score, metadata, created_at`

func scanInsights(rows *sql.Rows) ([]models.Insight, error) {
	defer rows.Close()

	insights := make([]models.Insight, 0)
	for rows.Next() {
		var in models.Insight
		var metaStr, createdStr string
		if err := rows.Scan(&in.ID, &in.UserID, &in.JournalEntryID, &in.Kind, &in.Content, &in.Confidence, &metaStr, &createdStr); err != nil {
			return nil, err
		}
		if metaStr != "" && metaStr != "{}" {
			_ = json.Unmarshal([]byte(metaStr), &in.Metadata)
		}
		in.CreatedAt = parseTime(createdStr)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// ListInsights returns a user's newest insights first
func (db *DB) ListInsights(userID string, limit int) ([]models.Insight, error) {
	rows, err := db.conn.Query(`
		SELECT `+insightColumns+`
		FROM ai_insights
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanInsights(rows)
}

// InsightsForEntry returns the insights of one journal entry in creation order
func (db *DB) InsightsForEntry(userID, entryID string) ([]models.Insight, error) {
	rows, err := db.conn.Query(`
		SELECT `+insightColumns+`
		FROM ai_insights
		WHERE user_id = ? AND journal_entry_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, userID, entryID)
	if err != nil {
		return nil, err
	}
	return scanInsights(rows)
}

// CountInsights returns a user's insight count. An empty kind counts all kinds.
func (db *DB) CountInsights(userID, kind string) (int, error) {
	query := `SELECT COUNT(*) FROM ai_insights WHERE user_id = ?`
	args := []interface{}{userID}
	if kind != "" {
		query += ` AND insight_type = ?`
		args = append(args, kind)
	}
	var n int
	err := db.conn.QueryRow(query, args...).Scan(&n)
	return n, err
}

// CreateChatMessage stores one chat turn
func (db *DB) CreateChatMessage(m *models.ChatMessage) error {
	_, err := db.conn.Exec(`
		INSERT INTO chat_messages (id, user_id, content, sender, message_type, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.Content, m.Sender, m.Kind, formatTime(m.Timestamp))
	return err
}

// ChatHistory returns the newest limit messages in chronological order
func (db *DB) ChatHistory(userID string, limit int) ([]models.ChatMessage, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, content, sender, message_type, timestamp FROM (
			SELECT rowid AS rid, id, user_id, content, sender, message_type, timestamp
			FROM chat_messages
			WHERE user_id = ?
			ORDER BY timestamp DESC, rowid DESC
			LIMIT ?
		) ORDER BY timestamp ASC, rid ASC
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		var tsStr string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.Sender, &m.Kind, &tsStr); err != nil {
			return nil, err
		}
		m.Timestamp = parseTime(tsStr)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ClearChat deletes a user's conversation and returns the number of messages removed
func (db *DB) ClearChat(userID string) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM chat_messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
