package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/vibenote-server/internal/analyst"
	"github.com/mrwolf/vibenote-server/internal/auth"
	"github.com/mrwolf/vibenote-server/internal/core"
	"github.com/mrwolf/vibenote-server/internal/db"
	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/export"
	"github.com/mrwolf/vibenote-server/internal/metrics"
)

type testServer struct {
	*httptest.Server
	hub *events.Hub
}

func setupTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Open(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	clock := clockwork.NewRealClock()
	m := metrics.New()
	hub := events.NewHub(nil, m, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	svc := core.New(core.Options{
		Store:    database,
		Analyzer: analyst.New(nil, nil, nil, m),
		Exporter: export.NewWriter(filepath.Join(tmpDir, "exports")),
		Events:   hub,
		Metrics:  m,
		Clock:    clock,
	})
	t.Cleanup(svc.Close)

	router := NewRouter(Deps{
		Service:   svc,
		Store:     database,
		Tokens:    auth.NewTokenIssuer("test-secret", time.Hour, clock),
		Hub:       hub,
		Metrics:   m,
		RateLimit: rateLimit,
		Version:   "test",
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": email, "password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[AuthResponse](t, resp)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestServer(t, 60)

	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "local", body["analysis"])
	assert.Equal(t, "test", body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t, 60)

	resp := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequiresAuth(t *testing.T) {
	s := setupTestServer(t, 60)

	resp := s.do(t, http.MethodPost, "/api/v1/moods", "", map[string]int{"mood_score": 3})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/stats", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decode[ErrorResponse](t, resp).Code)
}

func TestSignupAndLogin(t *testing.T) {
	s := setupTestServer(t, 60)
	s.signup(t, "a@example.com")

	resp := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "a@example.com", "password": "correct horse",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[ErrorResponse](t, resp).Code)

	resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[AuthResponse](t, resp)

	resp = s.do(t, http.MethodGet, "/api/v1/profile", out.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[map[string]any](t, resp)
	assert.Equal(t, "a@example.com", profile["email"])
	assert.NotContains(t, profile, "password_hash")
}

func TestMoodFlow(t *testing.T) {
	s := setupTestServer(t, 60)
	token := s.signup(t, "m@example.com")

	resp := s.do(t, http.MethodPost, "/api/v1/moods", token, map[string]any{"mood_score": 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decode[ErrorResponse](t, resp).Code)

	resp = s.do(t, http.MethodPost, "/api/v1/moods", token, map[string]any{"mood_score": 4, "notes": "sunny"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.MoodResult](t, resp)
	require.NotNil(t, created.Progression)
	assert.Equal(t, 15, created.Progression.Stats.TotalPoints)

	resp = s.do(t, http.MethodGet, "/api/v1/moods/today", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	today := decode[map[string]map[string]any](t, resp)
	assert.Equal(t, float64(4), today["mood"]["mood_score"])

	resp = s.do(t, http.MethodGet, "/api/v1/moods/stats?days=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/moods/stats?days=7", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[core.MoodStats](t, resp)
	assert.Equal(t, 1, stats.Count)

	resp = s.do(t, http.MethodGet, "/api/v1/achievements", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]map[string]any](t, resp)
	assert.Len(t, body["achievements"], 20)
	assert.Equal(t, true, body["achievements"][0]["completed"])
}

func TestJournalFlow(t *testing.T) {
	s := setupTestServer(t, 60)
	token := s.signup(t, "j@example.com")

	resp := s.do(t, http.MethodPost, "/api/v1/journal", token, map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/journal", token, map[string]string{"title": "Day", "content": "A long walk by the river"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.JournalResult](t, resp)
	assert.Equal(t, 6, created.Entry.WordCount)
	id := created.Entry.ID

	resp = s.do(t, http.MethodGet, "/api/v1/journal/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	other := s.signup(t, "k@example.com")
	resp = s.do(t, http.MethodGet, "/api/v1/journal/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/v1/journal/"+id, token, map[string]string{"content": "Rewritten"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/journal/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[core.JournalStats](t, resp)
	assert.Equal(t, 1, stats.TotalEntries)

	resp = s.do(t, http.MethodPost, "/api/v1/journal/export", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "REWARD_LOCKED", decode[ErrorResponse](t, resp).Code)

	resp = s.do(t, http.MethodDelete, "/api/v1/journal/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodDelete, "/api/v1/journal/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatFlow(t *testing.T) {
	s := setupTestServer(t, 60)
	token := s.signup(t, "c@example.com")

	resp := s.do(t, http.MethodPost, "/api/v1/chat/messages", token, map[string]string{"content": "I can't take it anymore"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ex := decode[core.ChatExchange](t, resp)
	assert.True(t, ex.CrisisDetected)
	assert.Equal(t, analyst.CrisisResponse, ex.AIMessage.Content)

	resp = s.do(t, http.MethodGet, "/api/v1/chat/sessions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessions := decode[map[string][]core.ChatSession](t, resp)
	require.Len(t, sessions["sessions"], 1)
	assert.Equal(t, 2, sessions["sessions"][0].MessageCount)

	resp = s.do(t, http.MethodDelete, "/api/v1/chat/messages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int64{"deleted": 2}, decode[map[string]int64](t, resp))
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t, 3)
	token := s.signup(t, "r@example.com")

	// signup used one request from the client address; the user has its own budget
	for i := 0; i < 3; i++ {
		resp := s.do(t, http.MethodGet, "/api/v1/stats", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := s.do(t, http.MethodGet, "/api/v1/stats", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestRateLimiterWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(2, time.Minute, clock)

	assert.True(t, rl.Allow("u"))
	assert.True(t, rl.Allow("u"))
	assert.False(t, rl.Allow("u"))
	assert.True(t, rl.Allow("other"))

	clock.Advance(time.Minute + time.Second)
	assert.True(t, rl.Allow("u"))
}

func TestEventsOverWebsocket(t *testing.T) {
	s := setupTestServer(t, 60)
	token := s.signup(t, "w@example.com")

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Connected() == 1 }, 2*time.Second, 10*time.Millisecond)

	created := s.do(t, http.MethodPost, "/api/v1/moods", token, map[string]any{"mood_score": 5})
	require.Equal(t, http.StatusCreated, created.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.TypeAchievementUnlocked, ev.Type)
	assert.Equal(t, "first_mood", ev.Data["id"])
}
