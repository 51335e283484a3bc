package analyst

import (
	"fmt"
	"strings"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// Prompt templates. Every structured prompt names the exact JSON shape the
// response is validated against.

const journalPrompt = `Read the journal entry below and analyse it.

JOURNAL ENTRY:
"%s"

Answer with JSON only, in exactly this shape:
{
  "summary": "two or three sentences on the main points",
  "emotions": ["emotion1", "emotion2", "emotion3"],
  "patterns": ["pattern1", "pattern2"],
  "suggestions": ["suggestion1", "suggestion2", "suggestion3"],
  "overall_sentiment": "positive|negative|neutral",
  "key_themes": ["theme1", "theme2", "theme3"]
}

Look at the feelings expressed, recurring themes, the overall mood and the main
concerns. Suggestions must be supportive and actionable.`

const trendsPrompt = `Here are a person's most recent journal entries:

%s

Describe the overall emotional trend (improving, declining or stable), the
recurring topics, areas for growth and positive patterns worth keeping.

Answer with JSON only:
{
  "trend": "improving|declining|stable",
  "common_themes": ["theme1", "theme2"],
  "growth_areas": ["area1", "area2"],
  "positive_patterns": ["pattern1", "pattern2"]
}`

const wellnessPrompt = `Suggest 3 to 5 personalised wellness activities for this person.

Average mood score: %.1f/5
Low mood days (score 2 or less): %d out of %d
Recent journal excerpt: %s...

Make each suggestion specific and actionable for their current state.

Answer with a JSON array of strings only:
["suggestion1", "suggestion2", "suggestion3"]`

const moodPatternsPrompt = `Here are a person's mood notes:

%s

Identify the three dominant emotions, the common triggers and two or three
personalised recommendations.

Answer with JSON only:
{
  "emotions": ["emotion1", "emotion2", "emotion3"],
  "triggers": ["trigger1", "trigger2", "trigger3"],
  "recommendations": ["recommendation1", "recommendation2"]
}`

const sentimentPrompt = `Analyse the sentiment and emotional content of these journal entries:

%s

Give the overall sentiment, a confidence between 0 and 1, the top emotions with
an intensity between 0 and 1, and the common themes.

Answer with JSON only:
{
  "overallSentiment": "positive|negative|neutral",
  "confidence": 0.85,
  "emotions": [{"emotion": "joy", "intensity": 0.8}],
  "themes": ["work", "family"]
}`

const planPrompt = `Put together 3 or 4 wellness suggestions grounded in common mental health
practice, each from a different category (mindfulness, exercise, nutrition,
sleep, social, stress).

Answer with a JSON array only:
[
  {
    "category": "mindfulness",
    "suggestion": "Try a 5-minute breathing exercise each morning",
    "priority": "high|medium|low",
    "reasoning": "why it helps"
  }
]`

const chatPrompt = `You are a warm, caring friend who is good at listening and offering
emotional support. You are not a medical professional.

Recent conversation:
%s

Their message: %s

Reply the way a real person would: hear them, validate their feelings without
dismissing them, offer gentle encouragement and ask a thoughtful question.
Stay conversational, never clinical. Keep it under 200 words.`

// journalExcerptLen bounds the journal text quoted in the wellness prompt
const journalExcerptLen = 200

func buildWellnessPrompt(scores []int, recentJournal string) string {
	var sum, low int
	for _, s := range scores {
		sum += s
		if s <= 2 {
			low++
		}
	}
	avg := 0.0
	if len(scores) > 0 {
		avg = float64(sum) / float64(len(scores))
	}
	excerpt := []rune(recentJournal)
	if len(excerpt) > journalExcerptLen {
		excerpt = excerpt[:journalExcerptLen]
	}
	return fmt.Sprintf(wellnessPrompt, avg, low, len(scores), string(excerpt))
}

func buildChatPrompt(message string, history []models.ChatMessage) string {
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", m.Sender, m.Content))
	}
	recent := strings.TrimSpace(sb.String())
	if recent == "" {
		recent = "(none)"
	}
	return fmt.Sprintf(chatPrompt, recent, message)
}
