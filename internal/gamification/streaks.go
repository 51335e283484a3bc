// Package gamification tracks activity streaks, levels, achievements and
// point-gated rewards. Everything here is pure state transformation; the
// caller loads and persists the rows.
package gamification

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// Activity is a streak-bearing user action
type Activity string

const (
	ActivityMood    Activity = "mood"
	ActivityJournal Activity = "journal"
)

// DateLayout is the storage form of a calendar date
const DateLayout = "2006-01-02"

// Tracker advances streak counters on calendar days in a fixed location
type Tracker struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewTracker creates a tracker. nil arguments mean the real clock and UTC.
func NewTracker(clock clockwork.Clock, loc *time.Location) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{clock: clock, loc: loc}
}

// Location is the time zone calendar days are counted in
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Today returns the current calendar date in the tracker's location
func (t *Tracker) Today() time.Time {
	return Date(t.clock.Now().In(t.loc))
}

// Date truncates t to its calendar date, expressed as midnight UTC so that
// date differences are whole multiples of 24h.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// Advance returns the streak after an activity on today, given the current
// count and the last recorded activity date.
func Advance(current int, last *time.Time, today time.Time) int {
	if last == nil {
		return 1
	}
	switch gap := DaysBetween(*last, today); {
	case gap < 0:
		// last activity recorded in the future; leave it alone
		return current
	case gap == 0:
		return current
	case gap == 1:
		return current + 1
	default:
		return 1
	}
}

// Record applies an activity performed now to the streak fields of stats.
// Repeating an activity on the same day changes nothing.
func (t *Tracker) Record(stats *models.UserStats, activity Activity) {
	today := t.Today()

	switch activity {
	case ActivityMood:
		stats.MoodStreak = Advance(stats.MoodStreak, stats.LastMoodDate, today)
		stats.LastMoodDate = datePtr(today)
	case ActivityJournal:
		stats.JournalStreak = Advance(stats.JournalStreak, stats.LastJournalDate, today)
		stats.LastJournalDate = datePtr(today)
	}

	if sameDay(stats.LastMoodDate, today) && sameDay(stats.LastJournalDate, today) {
		stats.CombinedStreak = Advance(stats.CombinedStreak, stats.LastCombinedDate, today)
		stats.LastCombinedDate = datePtr(today)
		return
	}
	// the day is only half done; a streak ending yesterday is still alive.
	// Held, not reset to 1, so repeat logs on the same day cannot change it.
	if stats.LastCombinedDate != nil {
		if gap := DaysBetween(*stats.LastCombinedDate, today); gap >= 0 && gap <= 1 {
			return
		}
	}
	stats.CombinedStreak = 1
}

func sameDay(d *time.Time, day time.Time) bool {
	return d != nil && Date(*d).Equal(day)
}

func datePtr(d time.Time) *time.Time {
	return &d
}
