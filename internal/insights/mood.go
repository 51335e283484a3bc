package insights

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mrwolf/vibenote-server/internal/classifier"
	"github.com/mrwolf/vibenote-server/internal/models"
)

const (
	maxDominantEmotions = 3
	maxTriggers         = 3
	// a term must recur at least this often to count as a trigger
	minTriggerTerm = 2
)

// fixed stand-in values for sentiment analysis without a remote model
const (
	fallbackSentimentConfidence = 0.5
	maxSentimentEmotions        = 2
)

var (
	fallbackIntensities = []float64{0.5, 0.3}
	defaultThemes       = []string{"daily life", "reflection", "personal growth"}
)

// MoodPatterns summarises a collection of mood notes
type MoodPatterns struct {
	Emotions        []string `json:"emotions"`
	Triggers        []string `json:"triggers"`
	Recommendations []string `json:"recommendations"`
}

// EmotionIntensity is one weighted emotion in a sentiment analysis
type EmotionIntensity struct {
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// SentimentAnalysis summarises a set of journal entries
type SentimentAnalysis struct {
	OverallSentiment string             `json:"overallSentiment"`
	Confidence       float64            `json:"confidence"`
	Emotions         []EmotionIntensity `json:"emotions"`
	Themes           []string           `json:"themes"`
}

// NonBlank drops empty and whitespace-only texts
func NonBlank(texts []string) []string {
	var out []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

// AnalyzeMoodNotes finds the dominant emotions and recurring triggers across notes.
// Each note counts once per tag, so one long note cannot dominate.
func AnalyzeMoodNotes(notes []string) MoodPatterns {
	notes = NonBlank(notes)
	if len(notes) == 0 {
		return MoodPatterns{Emotions: []string{}, Triggers: []string{}, Recommendations: []string{}}
	}

	emotionCounts := make(map[string]int)
	themeCounts := make(map[string]int)
	for _, note := range notes {
		sig := classifier.Classify(note)
		for _, e := range sig.Emotions {
			if e != classifier.EmotionNeutral {
				emotionCounts[e]++
			}
		}
		for _, th := range sig.Themes {
			themeCounts[th]++
		}
	}

	emotions := rankByCount(classifier.EmotionVocabulary(), emotionCounts, maxDominantEmotions)
	if len(emotions) == 0 {
		emotions = []string{classifier.EmotionNeutral}
	}

	combined := strings.Join(notes, "\n\n")
	triggers := rankByCount(classifier.ThemeVocabulary(), themeCounts, maxTriggers)
	for _, tc := range classifier.TopTerms(classifier.CountTerms(combined), maxTriggers, minTriggerTerm) {
		if len(triggers) >= maxTriggers {
			break
		}
		if !slices.Contains(triggers, tc.Term) {
			triggers = append(triggers, tc.Term)
		}
	}

	return MoodPatterns{
		Emotions:        emotions,
		Triggers:        orEmpty(triggers),
		Recommendations: Suggestions(classifier.DetectSentiment(combined), classifier.Emotions(combined)),
	}
}

// rankByCount orders the labels with a non-zero count by count descending.
// Ties keep vocabulary order.
func rankByCount(vocabulary []string, counts map[string]int, limit int) []string {
	var ranked []string
	for _, label := range vocabulary {
		if counts[label] > 0 {
			ranked = append(ranked, label)
		}
	}
	slices.SortStableFunc(ranked, func(a, b string) int {
		return counts[b] - counts[a]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// AnalyzeSentiment reads a set of journal entries as one text.
// The confidence and intensities are fixed placeholders, not measurements.
func AnalyzeSentiment(entries []string) SentimentAnalysis {
	entries = NonBlank(entries)
	if len(entries) == 0 {
		return SentimentAnalysis{
			OverallSentiment: models.SentimentNeutral,
			Emotions:         []EmotionIntensity{},
			Themes:           []string{},
		}
	}

	sig := classifier.Classify(strings.Join(entries, "\n\n"))

	emotions := make([]EmotionIntensity, 0, maxSentimentEmotions)
	for i, e := range sig.Emotions {
		if i == maxSentimentEmotions {
			break
		}
		emotions = append(emotions, EmotionIntensity{Emotion: e, Intensity: fallbackIntensities[i]})
	}

	themes := sig.Themes
	if len(themes) == 0 {
		themes = slices.Clone(defaultThemes)
	}

	return SentimentAnalysis{
		OverallSentiment: sig.Sentiment,
		Confidence:       fallbackSentimentConfidence,
		Emotions:         emotions,
		Themes:           themes,
	}
}

// TrendReport is the shape of a multi-entry trend analysis
type TrendReport struct {
	Trend            string   `json:"trend"`
	CommonThemes     []string `json:"common_themes"`
	GrowthAreas      []string `json:"growth_areas"`
	PositivePatterns []string `json:"positive_patterns"`
}

// Trend labels
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// TrendReportInsights converts a trend report into insight drafts
func TrendReportInsights(r TrendReport) []Draft {
	outlook := "stable"
	switch r.Trend {
	case TrendImproving:
		outlook = "beneficial"
	case TrendDeclining:
		outlook = "challenging"
	}

	drafts := []Draft{{
		Kind:       models.InsightPattern,
		Content:    fmt.Sprintf("Your overall emotional trend appears to be %s. This suggests your current patterns are %s.", r.Trend, outlook),
		Confidence: 0.7,
		Metadata:   map[string]any{"trend": r.Trend},
	}}
	if len(r.CommonThemes) > 0 {
		drafts = append(drafts, Draft{
			Kind:       models.InsightPattern,
			Content:    fmt.Sprintf("You frequently write about: %s. These topics seem important to you right now.", strings.Join(r.CommonThemes, ", ")),
			Confidence: 0.8,
			Metadata:   map[string]any{"themes": r.CommonThemes},
		})
	}
	if len(r.GrowthAreas) > 0 {
		drafts = append(drafts, Draft{
			Kind:       models.InsightSuggestion,
			Content:    fmt.Sprintf("Areas you might explore: %s. These could be opportunities for personal development.", strings.Join(r.GrowthAreas, ", ")),
			Confidence: 0.6,
			Metadata:   map[string]any{"growth_areas": r.GrowthAreas},
		})
	}
	return drafts
}

// TrendInsights reads recent entries together without a remote model
func TrendInsights(entries []string) []Draft {
	entries = NonBlank(entries)
	if len(entries) == 0 {
		return []Draft{}
	}

	sig := classifier.Classify(strings.Join(entries, "\n\n"))

	topics := "various topics"
	if len(sig.Themes) > 0 {
		topics = strings.Join(sig.Themes, ", ")
	}
	drafts := []Draft{{
		Kind:       models.InsightPattern,
		Content:    fmt.Sprintf("Based on your recent entries, your emotional state appears %s. You've been writing about %s.", sig.Sentiment, topics),
		Confidence: 0.6,
		Metadata:   map[string]any{"sentiment": sig.Sentiment, "themes": orEmpty(sig.Themes)},
	}}
	if len(sig.Themes) > 0 {
		drafts = append(drafts, Draft{
			Kind:       models.InsightPattern,
			Content:    fmt.Sprintf("You frequently write about: %s. These topics seem important to you right now.", topics),
			Confidence: 0.7,
			Metadata:   map[string]any{"themes": sig.Themes},
		})
	}
	if sig.Sentiment == models.SentimentNegative || slices.Contains(sig.Emotions, classifier.EmotionSad) || slices.Contains(sig.Emotions, classifier.EmotionAnxious) {
		drafts = append(drafts, Draft{
			Kind:       models.InsightSuggestion,
			Content:    "Consider practicing self-care activities like deep breathing, going for walks, or talking to someone you trust.",
			Confidence: 0.5,
			Metadata:   map[string]any{"suggestion_type": "self_care"},
		})
	}
	return drafts
}
