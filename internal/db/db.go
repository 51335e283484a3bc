package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/mrwolf/vibenote-server/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    nickname TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

-- Mood logs are immutable; several per day are allowed
CREATE TABLE IF NOT EXISTS mood_entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    mood_score INTEGER NOT NULL CHECK (mood_score BETWEEN 1 AND 5),
    mood_emoji TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    word_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_insights (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    journal_entry_id TEXT NOT NULL DEFAULT '',
    insight_type TEXT NOT NULL,
    content TEXT NOT NULL,
    confidence_score REAL NOT NULL DEFAULT 0,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    sender TEXT NOT NULL,
    message_type TEXT NOT NULL,
    timestamp TEXT NOT NULL
);

-- One progression row per user; dates are YYYY-MM-DD
CREATE TABLE IF NOT EXISTS user_stats (
    user_id TEXT PRIMARY KEY,
    total_points INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    experience_points INTEGER NOT NULL DEFAULT 0,
    mood_streak INTEGER NOT NULL DEFAULT 0,
    journal_streak INTEGER NOT NULL DEFAULT 0,
    combined_streak INTEGER NOT NULL DEFAULT 0,
    last_mood_date TEXT,
    last_journal_date TEXT,
    last_combined_date TEXT,
    achievements_earned INTEGER NOT NULL DEFAULT 0,
    rewards_unlocked INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_achievements (
    user_id TEXT NOT NULL,
    achievement_id TEXT NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    completed INTEGER NOT NULL DEFAULT 0,
    completed_at TEXT,
    points_awarded INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, achievement_id)
);

CREATE TABLE IF NOT EXISTS user_rewards (
    user_id TEXT NOT NULL,
    reward_id TEXT NOT NULL,
    unlocked INTEGER NOT NULL DEFAULT 0,
    unlocked_at TEXT,
    PRIMARY KEY (user_id, reward_id)
);

CREATE TABLE IF NOT EXISTS point_transactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    points INTEGER NOT NULL,
    transaction_type TEXT NOT NULL,
    description TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_moods_user_date ON mood_entries(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_journal_user_date ON journal_entries(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_insights_user ON ai_insights(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_insights_entry ON ai_insights(journal_entry_id);
CREATE INDEX IF NOT EXISTS idx_chat_user_time ON chat_messages(user_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_points_user ON point_transactions(user_id, created_at);
`

// timeLayout is fixed-width so that text order is chronological order
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const dateLayout = "2006-01-02"

// ErrEmailTaken is returned when a user is created with an existing email
var ErrEmailTaken = errors.New("email already registered")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection for health reporting
func (db *DB) Ping() error {
	return db.conn.Ping()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func formatDate(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(dateLayout), Valid: true}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &d
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// CreateUser inserts a new account
func (db *DB) CreateUser(u *models.User) error {
	_, err := db.conn.Exec(`
		INSERT INTO users (id, email, password_hash, nickname, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.Nickname, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// GetUser returns a user by id, or nil if none exists
func (db *DB) GetUser(id string) (*models.User, error) {
	return db.scanUser(db.conn.QueryRow(`
		SELECT id, email, password_hash, nickname, created_at FROM users WHERE id = ?
	`, id))
}

// GetUserByEmail returns a user by email, or nil if none exists
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return db.scanUser(db.conn.QueryRow(`
		SELECT id, email, password_hash, nickname, created_at FROM users WHERE email = ?
	`, email))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var createdStr string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdStr)
	return &u, nil
}

// UpdateNickname changes a user's display name
func (db *DB) UpdateNickname(id, nickname string) (bool, error) {
	result, err := db.conn.Exec(`UPDATE users SET nickname = ? WHERE id = ?`, nickname, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
