// Package analyst asks the completion API for qualitative feedback and
// silently substitutes local analysis whenever the remote answer is missing,
// malformed or off-schema. Callers always get a usable value, never an error.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/llm"
	"github.com/mrwolf/vibenote-server/internal/metrics"
	"github.com/mrwolf/vibenote-server/internal/models"
)

// Completer is the completion API as seen by the analyzer
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Operation names, used in logs and metrics
const (
	OpJournal      = "journal"
	OpTrends       = "trends"
	OpWellness     = "wellness"
	OpMoodPatterns = "mood_patterns"
	OpSentiment    = "sentiment"
	OpPlan         = "plan"
	OpChat         = "chat"
)

// Result sources
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// errDisabled is the fallback reason when no completer is configured
var errDisabled = errors.New("completion API not configured")

const (
	// trendWindow is how many of the newest entries a trend analysis reads
	trendWindow = 5
	// chatHistoryTurns is how many earlier turns go into a chat prompt
	chatHistoryTurns = 5
)

// Analyzer runs remote analyses with local fallback
type Analyzer struct {
	client  Completer
	notice  *FallbackNotice
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an analyzer. A nil client means every call is answered locally.
// A nil notice gets a private one.
func New(client Completer, notice *FallbackNotice, logger *slog.Logger, m *metrics.Metrics) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if notice == nil {
		notice = NewFallbackNotice(logger)
	}
	return &Analyzer{
		client:  client,
		notice:  notice,
		logger:  logger,
		metrics: m,
	}
}

// Notice returns the analyzer's fallback notice
func (a *Analyzer) Notice() *FallbackNotice {
	return a.notice
}

// Mode is SourceLocal when no client is configured or any call has fallen
// back, SourceRemote otherwise.
func (a *Analyzer) Mode() string {
	if a.client == nil || a.notice.Shown() {
		return SourceLocal
	}
	return SourceRemote
}

// AnalyzeJournal analyses one journal entry
func (a *Analyzer) AnalyzeJournal(ctx context.Context, text string) insights.JournalAnalysis {
	req := llm.CompletionRequest{Prompt: fmt.Sprintf(journalPrompt, text), MaxTokens: 1000, Temperature: 0.3}
	res, err := structured(ctx, a, OpJournal, req, llm.ExtractJSON, parseJournal)
	if err != nil {
		return fallback(a, OpJournal, err, insights.AnalyzeJournal(text))
	}
	return res
}

// AnalyzeTrends reads the newest entries (newest first) together and returns insight drafts
func (a *Analyzer) AnalyzeTrends(ctx context.Context, entries []string) []insights.Draft {
	entries = insights.NonBlank(entries)
	if len(entries) == 0 {
		return []insights.Draft{}
	}
	if len(entries) > trendWindow {
		entries = entries[:trendWindow]
	}

	req := llm.CompletionRequest{Prompt: fmt.Sprintf(trendsPrompt, strings.Join(entries, "\n\n")), MaxTokens: 800, Temperature: 0.3}
	report, err := structured(ctx, a, OpTrends, req, llm.ExtractJSON, parseTrends)
	if err != nil {
		return fallback(a, OpTrends, err, insights.TrendInsights(entries))
	}
	return insights.TrendReportInsights(report)
}

// WellnessSuggestions personalises activities from mood scores and recent writing
func (a *Analyzer) WellnessSuggestions(ctx context.Context, scores []int, recentJournal string) []string {
	req := llm.CompletionRequest{Prompt: buildWellnessPrompt(scores, recentJournal), MaxTokens: 500, Temperature: 0.4}
	res, err := structured(ctx, a, OpWellness, req, llm.ExtractJSONArray, parseSuggestionList)
	if err != nil {
		return fallback(a, OpWellness, err, insights.WellnessSuggestions(scores, recentJournal))
	}
	return res
}

// AnalyzeMoodPatterns finds dominant emotions and triggers in mood notes.
// Blank input is answered locally without a remote call.
func (a *Analyzer) AnalyzeMoodPatterns(ctx context.Context, notes []string) insights.MoodPatterns {
	notes = insights.NonBlank(notes)
	if len(notes) == 0 {
		return insights.AnalyzeMoodNotes(nil)
	}

	req := llm.CompletionRequest{Prompt: fmt.Sprintf(moodPatternsPrompt, strings.Join(notes, "\n\n")), MaxTokens: 500, Temperature: 0.4}
	res, err := structured(ctx, a, OpMoodPatterns, req, llm.ExtractJSON, parseMoodPatterns)
	if err != nil {
		return fallback(a, OpMoodPatterns, err, insights.AnalyzeMoodNotes(notes))
	}
	return res
}

// AnalyzeSentiment reads a set of journal entries as a whole.
// Blank input is answered locally without a remote call.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, entries []string) insights.SentimentAnalysis {
	entries = insights.NonBlank(entries)
	if len(entries) == 0 {
		return insights.AnalyzeSentiment(nil)
	}

	req := llm.CompletionRequest{Prompt: fmt.Sprintf(sentimentPrompt, strings.Join(entries, "\n\n")), MaxTokens: 800, Temperature: 0.3}
	res, err := structured(ctx, a, OpSentiment, req, llm.ExtractJSON, parseSentiment)
	if err != nil {
		return fallback(a, OpSentiment, err, insights.AnalyzeSentiment(entries))
	}
	return res
}

// WellnessPlan returns a short multi-category wellness plan
func (a *Analyzer) WellnessPlan(ctx context.Context) []insights.WellnessSuggestion {
	req := llm.CompletionRequest{Prompt: planPrompt, MaxTokens: 500, Temperature: 0.4}
	res, err := structured(ctx, a, OpPlan, req, llm.ExtractJSONArray, parsePlan)
	if err != nil {
		return fallback(a, OpPlan, err, insights.WellnessPlan())
	}
	return res
}

// Respond answers a chat message. A crisis phrase short-circuits everything:
// the fixed safety response is returned and the completion API is never called.
func (a *Analyzer) Respond(ctx context.Context, message string, history []models.ChatMessage) insights.Reply {
	if DetectCrisis(message) {
		a.metrics.CrisisDetected()
		a.logger.Warn("crisis phrase detected in chat message")
		return crisisReply()
	}

	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}
	req := llm.CompletionRequest{Prompt: buildChatPrompt(message, history), MaxTokens: 300, Temperature: 0.7}
	text, err := a.complete(ctx, OpChat, req)
	if err != nil {
		return fallback(a, OpChat, err, insights.TherapeuticReply(message))
	}
	a.metrics.Analysis(OpChat, SourceRemote)
	return insights.Reply{Content: text, Kind: models.MessageKindMessage}
}

func (a *Analyzer) complete(ctx context.Context, op string, req llm.CompletionRequest) (string, error) {
	if a.client == nil {
		return "", errDisabled
	}
	start := time.Now()
	text, err := a.client.Complete(ctx, req)
	a.metrics.CompletionDuration(op, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return text, nil
}

// structured runs one completion and turns it into T via extract and parse
func structured[T any](ctx context.Context, a *Analyzer, op string, req llm.CompletionRequest, extract func(string) string, parse func(string) (T, error)) (T, error) {
	var zero T
	text, err := a.complete(ctx, op, req)
	if err != nil {
		return zero, err
	}
	raw := extract(text)
	if raw == "" {
		return zero, llm.ErrNoJSON
	}
	res, err := parse(raw)
	if err != nil {
		return zero, err
	}
	a.metrics.Analysis(op, SourceRemote)
	return res, nil
}

// fallback records why the remote path failed and returns the local result
func fallback[T any](a *Analyzer, op string, err error, local T) T {
	reason := FallbackReason(err)
	a.notice.Show(op, reason)
	a.metrics.Fallback(op, reason)
	a.metrics.Analysis(op, SourceLocal)
	if !errors.Is(err, errDisabled) {
		a.logger.Debug("using local analysis", "op", op, "reason", reason, "error", err)
	}
	return local
}

// FallbackReason names the failure class of a remote analysis error
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, errDisabled):
		return "disabled"
	case llm.IsQuotaExhausted(err):
		return "quota"
	case llm.StatusCode(err) != 0:
		return "status"
	case errors.Is(err, llm.ErrEmptyCompletion):
		return "empty"
	case errors.Is(err, llm.ErrNoJSON):
		return "no_json"
	case errors.Is(err, ErrMalformedJSON):
		return "malformed"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
