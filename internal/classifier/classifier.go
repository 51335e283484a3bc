// Package classifier derives emotion, sentiment, theme and structural
// pattern signals from free text using fixed keyword dictionaries.
// Every function is pure and total: empty or malformed input yields the
// neutral defaults, never an error.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// Structural patterns
const (
	PatternDetailed    = "detailed reflection"
	PatternQuestioning = "questioning thoughts"
	PatternStrong      = "strong emotions"
	PatternAbsolute    = "absolute thinking"
)

// detailedLength is the character count above which text is a detailed reflection
const detailedLength = 100

var wordRegex = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

// Result bundles the four lexical signals for one text
type Result struct {
	Emotions  []string `json:"emotions"`
	Sentiment string   `json:"sentiment"`
	Themes    []string `json:"themes"`
	Patterns  []string `json:"patterns"`
}

// Classify runs every lexical signal over text
func Classify(text string) Result {
	tokens := Tokenize(text)
	return Result{
		Emotions:  emotionsOf(tokens),
		Sentiment: sentimentOf(tokens),
		Themes:    themesOf(tokens),
		Patterns:  Patterns(text),
	}
}

// Tokenize lowercases text and splits it into whole words.
// Contractions such as "can't" stay a single token.
func Tokenize(text string) []string {
	return wordRegex.FindAllString(strings.ToLower(text), -1)
}

// WordCount is the number of whitespace-delimited tokens in text
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Emotions returns the matched emotion tags, or {neutral} when nothing matches
func Emotions(text string) []string {
	return emotionsOf(Tokenize(text))
}

// DetectSentiment compares positive and negative word occurrences.
// The strictly larger count wins; a tie is neutral.
func DetectSentiment(text string) string {
	return sentimentOf(Tokenize(text))
}

// Themes returns matched themes in vocabulary order
func Themes(text string) []string {
	return themesOf(Tokenize(text))
}

// Patterns returns structural observations about the raw text
func Patterns(text string) []string {
	var patterns []string
	if utf8.RuneCountInString(text) > detailedLength {
		patterns = append(patterns, PatternDetailed)
	}
	if strings.Contains(text, "?") {
		patterns = append(patterns, PatternQuestioning)
	}
	if strings.Contains(text, "!") {
		patterns = append(patterns, PatternStrong)
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "always") || strings.Contains(lower, "never") {
		patterns = append(patterns, PatternAbsolute)
	}
	return patterns
}

func emotionsOf(tokens []string) []string {
	emotions := matchSets(tokens, emotionVocabulary)
	if len(emotions) == 0 {
		return []string{EmotionNeutral}
	}
	return emotions
}

func themesOf(tokens []string) []string {
	return matchSets(tokens, themeVocabulary)
}

func sentimentOf(tokens []string) string {
	var pos, neg int
	for _, t := range tokens {
		if positiveWords[t] {
			pos++
		}
		if negativeWords[t] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func matchSets(tokens []string, sets []keywordSet) []string {
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}

	var out []string
	for _, set := range sets {
		for _, kw := range set.keywords {
			if present[kw] {
				out = append(out, set.label)
				break
			}
		}
	}
	return out
}
