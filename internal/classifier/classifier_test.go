package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrwolf/vibenote-server/internal/models"
)

func TestEmotions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{EmotionNeutral}},
		{"no keywords", "the bus was on schedule", []string{EmotionNeutral}},
		{"single", "I am so tired", []string{EmotionTired}},
		{"declaration order", "Exhausted and worried but happy", []string{EmotionHappy, EmotionAnxious, EmotionTired}},
		{"case insensitive", "ANGRY at everything", []string{EmotionAngry}},
		{"whole words only", "the sadness of downtown", []string{EmotionNeutral}},
		{"punctuation stripped", "calm, finally.", []string{EmotionCalm}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Emotions(tt.text))
		})
	}
}

func TestEmotionsNeverEmpty(t *testing.T) {
	inputs := []string{"", "   ", "!!!", "???", "12345", "ñandú", "a b c", strings.Repeat("x", 500)}
	for _, in := range inputs {
		assert.NotEmpty(t, Emotions(in), "input %q", in)
	}
}

func TestDetectSentiment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", models.SentimentNeutral},
		{"went to the shop", models.SentimentNeutral},
		{"a good day", models.SentimentPositive},
		{"a bad day", models.SentimentNegative},
		{"good and bad", models.SentimentNeutral},
		{"good good bad", models.SentimentPositive},
		{"I hate this, it is awful and terrible but great", models.SentimentNegative},
		{"GREAT", models.SentimentPositive},
		{"goodness gracious", models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSentiment(tt.text))
		})
	}
}

func TestThemes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "nothing in particular", nil},
		{"work", "my boss called", []string{ThemeWork}},
		{"vocabulary order not match order", "music with my mom after the meeting", []string{ThemeWork, ThemeFamily, ThemeHobbies}},
		{"relationships", "date night with my partner", []string{ThemeRelationships}},
		{"school", "Exam tomorrow", []string{ThemeSchool}},
		{"health", "skipped the gym", []string{ThemeHealth}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Themes(tt.text))
		})
	}
}

func TestPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"question", "why me?", []string{PatternQuestioning}},
		{"exclamation", "yes!", []string{PatternStrong}},
		{"absolute", "I Never get it right", []string{PatternAbsolute}},
		{"always substring", "always", []string{PatternAbsolute}},
		{"exactly 100 chars", strings.Repeat("a", 100), nil},
		{"101 chars", strings.Repeat("a", 101), []string{PatternDetailed}},
		{"all four", strings.Repeat("word ", 25) + "always?!", []string{PatternDetailed, PatternQuestioning, PatternStrong, PatternAbsolute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Patterns(tt.text))
		})
	}
}

func TestClassifyJournalSample(t *testing.T) {
	text := "I feel great about work today!"

	got := Classify(text)

	assert.Equal(t, models.SentimentPositive, got.Sentiment)
	assert.Contains(t, got.Themes, ThemeWork)
	assert.Contains(t, got.Patterns, PatternStrong)
	assert.Equal(t, []string{EmotionHappy}, got.Emotions)
	assert.Equal(t, 6, WordCount(text))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount(" \n\t "))
	assert.Equal(t, 3, WordCount("one  two\nthree"))
	assert.Equal(t, 2, WordCount("don't stop"))
}

func TestExtractTerms(t *testing.T) {
	text := "Deadline deadline deadline. Traffic traffic. Coffee. I am the one who went"

	assert.Equal(t, []string{"deadline", "traffic"}, ExtractTerms(text, 2))
	assert.Equal(t, []string{"deadline", "traffic", "coffee"}, ExtractTerms(text, 10))
	assert.Empty(t, ExtractTerms("", 5))
}

func TestTopTermsTiesAlphabetical(t *testing.T) {
	counts := map[string]int{"zebra": 2, "apple": 2, "mango": 3, "kiwi": 1}

	got := TopTerms(counts, 3, 2)

	assert.Equal(t, []TermCount{{"mango", 3}, {"apple", 2}, {"zebra", 2}}, got)
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"the", "i'm", "because", "today"} {
		assert.True(t, IsStopword(w), w)
	}
	for _, w := range []string{"deadline", "exam", "coffee"} {
		assert.False(t, IsStopword(w), w)
	}
}
