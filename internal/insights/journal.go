// Package insights builds structured analyses from lexical signals alone.
// It is the local stand-in used whenever the completion API cannot answer,
// and its output has the same shape as a parsed remote analysis.
package insights

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mrwolf/vibenote-server/internal/classifier"
	"github.com/mrwolf/vibenote-server/internal/models"
)

// MaxSuggestions caps the suggestion list of a journal analysis
const MaxSuggestions = 3

// Suggestion texts, grouped by the rule that emits them
const (
	SuggestBreathe   = "Take a few deep breaths"
	SuggestWalk      = "Go for a short walk"
	SuggestTalk      = "Talk to someone you trust"
	SuggestRest      = "Get some rest"
	SuggestNap       = "Take a short nap"
	SuggestCelebrate = "Celebrate this moment"
	SuggestShare     = "Share your joy with others"
	SuggestGratitude = "Practice gratitude"
	SuggestHydrate   = "Stay hydrated"
)

// JournalAnalysis is the structured reading of one journal entry
type JournalAnalysis struct {
	Summary          string   `json:"summary"`
	Emotions         []string `json:"emotions"`
	Patterns         []string `json:"patterns"`
	Suggestions      []string `json:"suggestions"`
	OverallSentiment string   `json:"overall_sentiment"`
	KeyThemes        []string `json:"key_themes"`
}

// Draft is an insight that has not been persisted yet
type Draft struct {
	Kind       string         `json:"insight_type"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence_score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AnalyzeJournal reads a single journal entry
func AnalyzeJournal(text string) JournalAnalysis {
	sig := classifier.Classify(text)
	return JournalAnalysis{
		Summary:          summarize(sig.Themes, sig.Sentiment),
		Emotions:         sig.Emotions,
		Patterns:         orEmpty(sig.Patterns),
		Suggestions:      Suggestions(sig.Sentiment, sig.Emotions),
		OverallSentiment: sig.Sentiment,
		KeyThemes:        orEmpty(sig.Themes),
	}
}

func summarize(themes []string, sentiment string) string {
	topic := "your day"
	if len(themes) > 0 {
		topic = strings.Join(themes, ", ")
	}
	return fmt.Sprintf("You wrote about %s. This reflection shows %s feelings.", topic, sentiment)
}

// Suggestions applies the priority rules in order and keeps the first three.
// Gratitude and hydration only fill slots the earlier rules left open.
func Suggestions(sentiment string, emotions []string) []string {
	var out []string
	if sentiment == models.SentimentNegative || slices.Contains(emotions, classifier.EmotionSad) || slices.Contains(emotions, classifier.EmotionAnxious) {
		out = append(out, SuggestBreathe, SuggestWalk, SuggestTalk)
	}
	if slices.Contains(emotions, classifier.EmotionTired) {
		out = append(out, SuggestRest, SuggestNap)
	}
	if sentiment == models.SentimentPositive {
		out = append(out, SuggestCelebrate, SuggestShare)
	}
	out = append(out, SuggestGratitude, SuggestHydrate)

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// BuildInsights turns an analysis into the insight records stored for an entry
func BuildInsights(a JournalAnalysis) []Draft {
	var drafts []Draft
	if a.Summary != "" {
		drafts = append(drafts, Draft{
			Kind:       models.InsightSummary,
			Content:    a.Summary,
			Confidence: 0.9,
			Metadata:   map[string]any{"sentiment": a.OverallSentiment, "themes": a.KeyThemes},
		})
	}
	if len(a.Emotions) > 0 {
		drafts = append(drafts, Draft{
			Kind:       models.InsightEmotion,
			Content:    fmt.Sprintf("You're experiencing: %s. This is a natural part of your emotional journey.", strings.Join(a.Emotions, ", ")),
			Confidence: 0.8,
			Metadata:   map[string]any{"emotions": a.Emotions},
		})
	}
	if len(a.Patterns) > 0 {
		drafts = append(drafts, Draft{
			Kind:       models.InsightPattern,
			Content:    fmt.Sprintf("I notice some patterns: %s. Being aware of these can help you understand yourself better.", strings.Join(a.Patterns, "; ")),
			Confidence: 0.7,
			Metadata:   map[string]any{"patterns": a.Patterns},
		})
	}
	if len(a.Suggestions) > 0 {
		drafts = append(drafts, Draft{
			Kind:       models.InsightSuggestion,
			Content:    fmt.Sprintf("Consider trying: %s. These might help improve your wellbeing.", strings.Join(a.Suggestions, "; ")),
			Confidence: 0.6,
			Metadata:   map[string]any{"suggestions": a.Suggestions},
		})
	}
	return drafts
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
