package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Analysis("journal", "local")
		m.Fallback("journal", "quota")
		m.CrisisDetected()
		m.CompletionDuration("chat", 1)
		m.PointsAwarded("mood_entry", 5)
		m.AchievementUnlocked("first_mood")
		m.RewardUnlocked("theme_dark")
		m.InsightTask("ok")
		m.SetEventClients(3)
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.Fallback("journal", "quota")
	m.Fallback("journal", "quota")
	m.PointsAwarded("journal_entry", 10)
	m.PointsAwarded("journal_entry", 0)
	m.CrisisDetected()

	body := scrape(t, m)
	assert.Contains(t, body, `vibenote_analysis_fallbacks_total{op="journal",reason="quota"} 2`)
	assert.Contains(t, body, `vibenote_points_awarded_total{type="journal_entry"} 10`)
	assert.Contains(t, body, `vibenote_crisis_detections_total 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.AchievementUnlocked("first_journal")

	assert.Contains(t, scrape(t, m), `vibenote_achievements_unlocked_total{achievement="first_journal"} 1`)
}
