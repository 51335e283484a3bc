package analyst

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/models"
)

var (
	// ErrMalformedJSON means the extracted JSON did not decode
	ErrMalformedJSON = errors.New("malformed JSON")
	// ErrSchemaMismatch means the JSON decoded but lacks required fields or has bad values
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// Pointer fields distinguish a missing key from a zero value.

type journalPayload struct {
	Summary          *string   `json:"summary"`
	Emotions         *[]string `json:"emotions"`
	Patterns         *[]string `json:"patterns"`
	Suggestions      *[]string `json:"suggestions"`
	OverallSentiment *string   `json:"overall_sentiment"`
	KeyThemes        *[]string `json:"key_themes"`
}

type moodPayload struct {
	Emotions        *[]string `json:"emotions"`
	Triggers        *[]string `json:"triggers"`
	Recommendations *[]string `json:"recommendations"`
}

type emotionPayload struct {
	Emotion   *string  `json:"emotion"`
	Intensity *float64 `json:"intensity"`
}

type sentimentPayload struct {
	OverallSentiment *string           `json:"overallSentiment"`
	Confidence       *float64          `json:"confidence"`
	Emotions         *[]emotionPayload `json:"emotions"`
	Themes           *[]string         `json:"themes"`
}

type trendPayload struct {
	Trend            *string   `json:"trend"`
	CommonThemes     *[]string `json:"common_themes"`
	GrowthAreas      *[]string `json:"growth_areas"`
	PositivePatterns []string  `json:"positive_patterns"`
}

type planItemPayload struct {
	Category   *string `json:"category"`
	Suggestion *string `json:"suggestion"`
	Priority   *string `json:"priority"`
	Reasoning  *string `json:"reasoning"`
}

func decode(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}

func parseJournal(raw string) (insights.JournalAnalysis, error) {
	var p journalPayload
	if err := decode(raw, &p); err != nil {
		return insights.JournalAnalysis{}, err
	}
	if p.Summary == nil || p.Emotions == nil || p.Patterns == nil || p.Suggestions == nil || p.OverallSentiment == nil || p.KeyThemes == nil {
		return insights.JournalAnalysis{}, mismatch("journal analysis missing required fields")
	}
	sentiment, ok := normalizeSentiment(*p.OverallSentiment)
	if !ok {
		return insights.JournalAnalysis{}, mismatch("unknown sentiment %q", *p.OverallSentiment)
	}
	if strings.TrimSpace(*p.Summary) == "" {
		return insights.JournalAnalysis{}, mismatch("empty summary")
	}

	suggestions := *p.Suggestions
	if len(suggestions) > insights.MaxSuggestions {
		suggestions = suggestions[:insights.MaxSuggestions]
	}
	return insights.JournalAnalysis{
		Summary:          *p.Summary,
		Emotions:         *p.Emotions,
		Patterns:         *p.Patterns,
		Suggestions:      suggestions,
		OverallSentiment: sentiment,
		KeyThemes:        *p.KeyThemes,
	}, nil
}

func parseMoodPatterns(raw string) (insights.MoodPatterns, error) {
	var p moodPayload
	if err := decode(raw, &p); err != nil {
		return insights.MoodPatterns{}, err
	}
	if p.Emotions == nil || p.Triggers == nil || p.Recommendations == nil {
		return insights.MoodPatterns{}, mismatch("mood patterns missing required fields")
	}
	return insights.MoodPatterns{
		Emotions:        *p.Emotions,
		Triggers:        *p.Triggers,
		Recommendations: *p.Recommendations,
	}, nil
}

func parseSentiment(raw string) (insights.SentimentAnalysis, error) {
	var p sentimentPayload
	if err := decode(raw, &p); err != nil {
		return insights.SentimentAnalysis{}, err
	}
	if p.OverallSentiment == nil || p.Confidence == nil || p.Emotions == nil || p.Themes == nil {
		return insights.SentimentAnalysis{}, mismatch("sentiment analysis missing required fields")
	}
	sentiment, ok := normalizeSentiment(*p.OverallSentiment)
	if !ok {
		return insights.SentimentAnalysis{}, mismatch("unknown sentiment %q", *p.OverallSentiment)
	}
	if !unit(*p.Confidence) {
		return insights.SentimentAnalysis{}, mismatch("confidence %v outside [0,1]", *p.Confidence)
	}

	emotions := make([]insights.EmotionIntensity, 0, len(*p.Emotions))
	for _, e := range *p.Emotions {
		if e.Emotion == nil || e.Intensity == nil || !unit(*e.Intensity) {
			return insights.SentimentAnalysis{}, mismatch("invalid emotion entry")
		}
		emotions = append(emotions, insights.EmotionIntensity{Emotion: *e.Emotion, Intensity: *e.Intensity})
	}
	return insights.SentimentAnalysis{
		OverallSentiment: sentiment,
		Confidence:       *p.Confidence,
		Emotions:         emotions,
		Themes:           *p.Themes,
	}, nil
}

func parseTrends(raw string) (insights.TrendReport, error) {
	var p trendPayload
	if err := decode(raw, &p); err != nil {
		return insights.TrendReport{}, err
	}
	if p.Trend == nil || p.CommonThemes == nil || p.GrowthAreas == nil {
		return insights.TrendReport{}, mismatch("trend report missing required fields")
	}
	trend := strings.ToLower(strings.TrimSpace(*p.Trend))
	if trend != insights.TrendImproving && trend != insights.TrendDeclining && trend != insights.TrendStable {
		return insights.TrendReport{}, mismatch("unknown trend %q", *p.Trend)
	}
	return insights.TrendReport{
		Trend:            trend,
		CommonThemes:     *p.CommonThemes,
		GrowthAreas:      *p.GrowthAreas,
		PositivePatterns: p.PositivePatterns,
	}, nil
}

func parseSuggestionList(raw string) ([]string, error) {
	var list []string
	if err := decode(raw, &list); err != nil {
		return nil, err
	}
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, mismatch("no suggestions")
	}
	if len(out) > insights.MaxWellnessSuggestions {
		out = out[:insights.MaxWellnessSuggestions]
	}
	return out, nil
}

func parsePlan(raw string) ([]insights.WellnessSuggestion, error) {
	var items []planItemPayload
	if err := decode(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, mismatch("empty plan")
	}

	plan := make([]insights.WellnessSuggestion, 0, len(items))
	for _, it := range items {
		if it.Category == nil || it.Suggestion == nil || it.Priority == nil || it.Reasoning == nil {
			return nil, mismatch("plan item missing required fields")
		}
		category := strings.ToLower(*it.Category)
		priority := strings.ToLower(*it.Priority)
		if !slices.Contains(insights.WellnessCategories, category) || !slices.Contains(insights.WellnessPriorities, priority) {
			return nil, mismatch("plan item category %q priority %q", *it.Category, *it.Priority)
		}
		plan = append(plan, insights.WellnessSuggestion{
			Category:   category,
			Suggestion: *it.Suggestion,
			Priority:   priority,
			Reasoning:  *it.Reasoning,
		})
	}
	return plan, nil
}

func normalizeSentiment(s string) (string, bool) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
		return v, true
	default:
		return "", false
	}
}

func unit(f float64) bool {
	return f >= 0 && f <= 1
}
