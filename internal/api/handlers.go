package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mrwolf/vibenote-server/internal/auth"
	"github.com/mrwolf/vibenote-server/internal/core"
	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/models"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping() error
}

// LLMStatus reports the latest completion API health check
type LLMStatus interface {
	LLMStatus() string
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

type Handlers struct {
	svc     *core.Service
	store   Pinger
	tokens  *auth.TokenIssuer
	hub     *events.Hub
	health  LLMStatus
	logger  *slog.Logger
	version string
}

func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handlers{
		svc:     deps.Service,
		store:   deps.Store,
		tokens:  deps.Tokens,
		hub:     deps.Hub,
		health:  deps.Health,
		logger:  deps.Logger,
		version: deps.Version,
	}
}

// serviceError maps core errors onto status codes. Anything unexpected is
// logged and reported as a 500 without details.
func (h *Handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
	case errors.Is(err, core.ErrRewardLocked):
		writeError(w, http.StatusForbidden, "this feature requires an unlocked reward", "REWARD_LOCKED")
	case errors.Is(err, core.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "user_id", GetUserID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter, 0 when absent
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer", "INVALID_QUERY")
		return 0, false
	}
	return n, true
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   "ok",
		Database: "ok",
		LLM:      "unknown",
		Analysis: h.svc.Analyzer().Mode(),
		Version:  h.version,
	}
	if h.health != nil {
		resp.LLM = h.health.LLMStatus()
	}

	status := http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			h.logger.Error("database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// Signup handles POST /auth/signup
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req core.SignupInput
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.issue(w, r, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.issue(w, r, http.StatusOK, user)
}

func (h *Handlers) issue(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

// Events handles GET /ws
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "events are not available", "UNAVAILABLE")
		return
	}
	h.hub.ServeWS(w, r, GetUserID(r))
}

// CreateMood handles POST /moods
func (h *Handlers) CreateMood(w http.ResponseWriter, r *http.Request) {
	var req core.MoodInput
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.SaveMood(r.Context(), GetUserID(r), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListMoods handles GET /moods
func (h *Handlers) ListMoods(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	moods, err := h.svc.Moods(r.Context(), GetUserID(r), limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moods": moods})
}

// TodayMood handles GET /moods/today
func (h *Handlers) TodayMood(w http.ResponseWriter, r *http.Request) {
	mood, err := h.svc.TodayMood(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mood": mood})
}

// MoodStats handles GET /moods/stats
func (h *Handlers) MoodStats(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}
	stats, err := h.svc.MoodStats(r.Context(), GetUserID(r), days)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// MoodPatterns handles GET /moods/patterns
func (h *Handlers) MoodPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.svc.MoodPatterns(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

// CreateJournal handles POST /journal
func (h *Handlers) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var req core.JournalInput
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.SaveJournal(r.Context(), GetUserID(r), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListJournals handles GET /journal
func (h *Handlers) ListJournals(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}
	entries, err := h.svc.Journals(r.Context(), GetUserID(r), limit, offset)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// GetJournal handles GET /journal/{id}
func (h *Handlers) GetJournal(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Journal(r.Context(), GetUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateJournal handles PUT /journal/{id}
func (h *Handlers) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	var req core.JournalInput
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.svc.UpdateJournal(r.Context(), GetUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteJournal handles DELETE /journal/{id}
func (h *Handlers) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteJournal(r.Context(), GetUserID(r), chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JournalStats handles GET /journal/stats
func (h *Handlers) JournalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.JournalStats(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// JournalSentiment handles GET /journal/sentiment
func (h *Handlers) JournalSentiment(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.JournalSentiment(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// JournalTrends handles GET /journal/trends
func (h *Handlers) JournalTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.svc.JournalTrends(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": trends})
}

// ExportJournal handles POST /journal/export
func (h *Handlers) ExportJournal(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExportJournal(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SendChat handles POST /chat/messages
func (h *Handlers) SendChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ex, err := h.svc.SendChat(r.Context(), GetUserID(r), req.Content)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

// ChatHistory handles GET /chat/messages
func (h *Handlers) ChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	messages, err := h.svc.ChatHistory(r.Context(), GetUserID(r), limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// ClearChat handles DELETE /chat/messages
func (h *Handlers) ClearChat(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearChat(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// ChatSessions handles GET /chat/sessions
func (h *Handlers) ChatSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ChatSessions(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// Stats handles GET /stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// PointHistory handles GET /stats/points
func (h *Handlers) PointHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	txs, err := h.svc.PointHistory(r.Context(), GetUserID(r), limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

// Achievements handles GET /achievements
func (h *Handlers) Achievements(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Achievements(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": views})
}

// Rewards handles GET /rewards
func (h *Handlers) Rewards(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Rewards(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": views})
}

// WellnessSuggestions handles GET /wellness/suggestions
func (h *Handlers) WellnessSuggestions(w http.ResponseWriter, r *http.Request) {
	tips, err := h.svc.WellnessSuggestions(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": tips})
}

// WellnessPlan handles GET /wellness/plan
func (h *Handlers) WellnessPlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plan": h.svc.WellnessPlan(r.Context())})
}

// Profile handles GET /profile
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context(), GetUserID(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /profile
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), GetUserID(r), req.Nickname)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
