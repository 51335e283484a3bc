package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/vibenote-server/internal/auth"
	"github.com/mrwolf/vibenote-server/internal/core"
	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/metrics"
)

// Deps is everything the router needs. Metrics, Health and Clock are optional.
type Deps struct {
	Service   *core.Service
	Store     Pinger
	Tokens    *auth.TokenIssuer
	Hub       *events.Hub
	Metrics   *metrics.Metrics
	Health    LLMStatus
	RateLimit int
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Version   string
}

func NewRouter(deps Deps) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RateLimit <= 0 {
		deps.RateLimit = 60
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(deps.Logger))

	handlers := NewHandlers(deps)
	limiter := NewRateLimiter(deps.RateLimit, time.Minute, deps.Clock)

	// Public endpoints
	r.With(JSONContentType).Get("/health", handlers.Health)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(JSONContentType)
			r.Use(RateLimitMiddleware(limiter))
			r.Post("/auth/signup", handlers.Signup)
			r.Post("/auth/login", handlers.Login)
		})

		// websocket clients may pass the token as a query parameter
		r.With(AuthMiddleware(deps.Tokens, true)).Get("/ws", handlers.Events)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(deps.Tokens, false))
			r.Use(RateLimitMiddleware(limiter))
			r.Use(JSONContentType)

			r.Post("/moods", handlers.CreateMood)
			r.Get("/moods", handlers.ListMoods)
			r.Get("/moods/today", handlers.TodayMood)
			r.Get("/moods/stats", handlers.MoodStats)
			r.Get("/moods/patterns", handlers.MoodPatterns)

			r.Post("/journal", handlers.CreateJournal)
			r.Get("/journal", handlers.ListJournals)
			r.Get("/journal/stats", handlers.JournalStats)
			r.Get("/journal/sentiment", handlers.JournalSentiment)
			r.Get("/journal/trends", handlers.JournalTrends)
			r.Post("/journal/export", handlers.ExportJournal)
			r.Get("/journal/{id}", handlers.GetJournal)
			r.Put("/journal/{id}", handlers.UpdateJournal)
			r.Delete("/journal/{id}", handlers.DeleteJournal)

			r.Post("/chat/messages", handlers.SendChat)
			r.Get("/chat/messages", handlers.ChatHistory)
			r.Delete("/chat/messages", handlers.ClearChat)
			r.Get("/chat/sessions", handlers.ChatSessions)

			r.Get("/stats", handlers.Stats)
			r.Get("/stats/points", handlers.PointHistory)
			r.Get("/achievements", handlers.Achievements)
			r.Get("/rewards", handlers.Rewards)

			r.Get("/wellness/suggestions", handlers.WellnessSuggestions)
			r.Get("/wellness/plan", handlers.WellnessPlan)

			r.Get("/profile", handlers.Profile)
			r.Put("/profile", handlers.UpdateProfile)
		})
	})

	return r
}
