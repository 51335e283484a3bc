package insights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/vibenote-server/internal/classifier"
	"github.com/mrwolf/vibenote-server/internal/models"
)

func TestAnalyzeJournal(t *testing.T) {
	got := AnalyzeJournal("I feel great about work today!")

	assert.Equal(t, "You wrote about work. This reflection shows positive feelings.", got.Summary)
	assert.Equal(t, models.SentimentPositive, got.OverallSentiment)
	assert.Equal(t, []string{"work"}, got.KeyThemes)
	assert.Equal(t, []string{classifier.PatternStrong}, got.Patterns)
	assert.Equal(t, []string{SuggestCelebrate, SuggestShare, SuggestGratitude}, got.Suggestions)
}

func TestAnalyzeJournalEmpty(t *testing.T) {
	got := AnalyzeJournal("")

	assert.Equal(t, "You wrote about your day. This reflection shows neutral feelings.", got.Summary)
	assert.Equal(t, []string{classifier.EmotionNeutral}, got.Emotions)
	assert.NotNil(t, got.Patterns)
	assert.NotNil(t, got.KeyThemes)
	assert.Equal(t, []string{SuggestGratitude, SuggestHydrate}, got.Suggestions)
}

func TestSuggestions(t *testing.T) {
	tests := []struct {
		name      string
		sentiment string
		emotions  []string
		want      []string
	}{
		{"negative fills cap", models.SentimentNegative, nil, []string{SuggestBreathe, SuggestWalk, SuggestTalk}},
		{"sad on neutral text", models.SentimentNeutral, []string{"sad"}, []string{SuggestBreathe, SuggestWalk, SuggestTalk}},
		{"tired then filler", models.SentimentNeutral, []string{"tired"}, []string{SuggestRest, SuggestNap, SuggestGratitude}},
		{"tired and positive", models.SentimentPositive, []string{"tired"}, []string{SuggestRest, SuggestNap, SuggestCelebrate}},
		{"neutral only fillers", models.SentimentNeutral, []string{"neutral"}, []string{SuggestGratitude, SuggestHydrate}},
		{"anxious beats tired", models.SentimentNeutral, []string{"anxious", "tired"}, []string{SuggestBreathe, SuggestWalk, SuggestTalk}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggestions(tt.sentiment, tt.emotions)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxSuggestions)
		})
	}
}

func TestBuildInsights(t *testing.T) {
	drafts := BuildInsights(AnalyzeJournal("Work was stressful. Why does my boss always do this?"))

	require.Len(t, drafts, 4)
	kinds := []string{drafts[0].Kind, drafts[1].Kind, drafts[2].Kind, drafts[3].Kind}
	assert.Equal(t, []string{models.InsightSummary, models.InsightEmotion, models.InsightPattern, models.InsightSuggestion}, kinds)
	assert.Equal(t, 0.9, drafts[0].Confidence)
	assert.Equal(t, 0.6, drafts[3].Confidence)
	assert.True(t, strings.HasPrefix(drafts[2].Content, "I notice some patterns: questioning thoughts; absolute thinking."))
}

func TestBuildInsightsSkipsEmptyParts(t *testing.T) {
	drafts := BuildInsights(JournalAnalysis{Summary: "short"})

	require.Len(t, drafts, 1)
	assert.Equal(t, models.InsightSummary, drafts[0].Kind)
}

func TestAnalyzeMoodNotes(t *testing.T) {
	notes := []string{
		"Stressed about the deadline at work",
		"  ",
		"worried about the deadline again, my boss is angry",
		"happy dinner with family",
	}

	got := AnalyzeMoodNotes(notes)

	assert.Equal(t, []string{"anxious", "happy", "angry"}, got.Emotions)
	assert.Equal(t, []string{"work", "family", "deadline"}, got.Triggers)
	assert.Equal(t, []string{SuggestBreathe, SuggestWalk, SuggestTalk}, got.Recommendations)
}

func TestAnalyzeMoodNotesEmpty(t *testing.T) {
	for _, notes := range [][]string{nil, {}, {"", "   "}} {
		got := AnalyzeMoodNotes(notes)
		assert.Empty(t, got.Emotions)
		assert.Empty(t, got.Triggers)
		assert.Empty(t, got.Recommendations)
		assert.NotNil(t, got.Emotions)
	}
}

func TestAnalyzeMoodNotesNeutralOnly(t *testing.T) {
	got := AnalyzeMoodNotes([]string{"went shopping"})

	assert.Equal(t, []string{classifier.EmotionNeutral}, got.Emotions)
	assert.Empty(t, got.Triggers)
}

func TestAnalyzeSentiment(t *testing.T) {
	got := AnalyzeSentiment([]string{"A great week with my friend", "", "so happy and calm"})

	assert.Equal(t, models.SentimentPositive, got.OverallSentiment)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, []EmotionIntensity{{"happy", 0.5}, {"calm", 0.3}}, got.Emotions)
	assert.Equal(t, []string{"relationships"}, got.Themes)
}

func TestAnalyzeSentimentDefaults(t *testing.T) {
	empty := AnalyzeSentiment(nil)
	assert.Equal(t, models.SentimentNeutral, empty.OverallSentiment)
	assert.Zero(t, empty.Confidence)
	assert.Empty(t, empty.Emotions)
	assert.Empty(t, empty.Themes)

	plain := AnalyzeSentiment([]string{"nothing much"})
	assert.Equal(t, []EmotionIntensity{{"neutral", 0.5}}, plain.Emotions)
	assert.Equal(t, []string{"daily life", "reflection", "personal growth"}, plain.Themes)
}

func TestTrendInsights(t *testing.T) {
	drafts := TrendInsights([]string{"sad about school", "exam stress"})

	require.Len(t, drafts, 3)
	assert.Contains(t, drafts[0].Content, "appears negative")
	assert.Contains(t, drafts[1].Content, "school")
	assert.Equal(t, models.InsightSuggestion, drafts[2].Kind)

	assert.Empty(t, TrendInsights(nil))
}

func TestTrendReportInsights(t *testing.T) {
	drafts := TrendReportInsights(TrendReport{Trend: TrendImproving, GrowthAreas: []string{"sleep"}})

	require.Len(t, drafts, 2)
	assert.Contains(t, drafts[0].Content, "beneficial")
	assert.Equal(t, models.InsightSuggestion, drafts[1].Kind)
}

func TestWellnessSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		scores  []int
		journal string
		want    []string
	}{
		{
			name:   "good mood no cues",
			scores: []int{4, 5, 4},
			want: []string{
				"Take a 10-minute walk outside",
				"Practice deep breathing for 5 minutes",
				"Write down 3 things you're grateful for today",
			},
		},
		{
			name:   "low mood capped at five",
			scores: []int{1, 2, 2},
			want: []string{
				"Take a 10-minute walk outside",
				"Practice deep breathing for 5 minutes",
				"Write down 3 things you're grateful for today",
				"Listen to your favorite uplifting music",
				"Call a friend or family member",
			},
		},
		{
			name:    "sleep cue",
			scores:  []int{4},
			journal: "so tired lately",
			want: []string{
				"Take a 10-minute walk outside",
				"Practice deep breathing for 5 minutes",
				"Write down 3 things you're grateful for today",
				"Establish a consistent sleep schedule",
				"Avoid screens 1 hour before bedtime",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WellnessSuggestions(tt.scores, tt.journal))
		})
	}
}

func TestWellnessPlan(t *testing.T) {
	plan := WellnessPlan()

	require.Len(t, plan, 4)
	for _, item := range plan {
		assert.Contains(t, WellnessCategories, item.Category)
		assert.Contains(t, WellnessPriorities, item.Priority)
	}
}

func TestTherapeuticReply(t *testing.T) {
	assert.Equal(t, models.MessageKindSuggestion, TherapeuticReply("I'm so worried").Kind)
	assert.Contains(t, TherapeuticReply("feeling DOWN").Content, "rough patches")
	assert.Contains(t, TherapeuticReply("all alone").Content, "lonely")
	assert.Equal(t, defaultReply, TherapeuticReply("hello").Content)
	assert.False(t, TherapeuticReply("hello").CrisisDetected)
}
