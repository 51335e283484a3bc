package insights

import (
	"slices"

	"github.com/mrwolf/vibenote-server/internal/classifier"
)

// MaxWellnessSuggestions caps personalised wellness suggestions
const MaxWellnessSuggestions = 5

// WellnessSuggestion is one item of a wellness plan
type WellnessSuggestion struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
	Reasoning  string `json:"reasoning"`
}

// Wellness plan categories and priorities
var (
	WellnessCategories = []string{"mindfulness", "exercise", "nutrition", "sleep", "social", "stress"}
	WellnessPriorities = []string{"high", "medium", "low"}
)

// WellnessSuggestions personalises activities from mood scores and recent journal text.
// A mood score of 2 or less is a low day.
func WellnessSuggestions(scores []int, recentJournal string) []string {
	out := []string{
		"Take a 10-minute walk outside",
		"Practice deep breathing for 5 minutes",
		"Write down 3 things you're grateful for today",
	}

	if len(scores) > 0 {
		var sum, low int
		for _, s := range scores {
			sum += s
			if s <= 2 {
				low++
			}
		}
		if float64(sum)/float64(len(scores)) < 3 {
			out = append(out, "Listen to your favorite uplifting music", "Call a friend or family member")
		}
		if float64(low) > float64(len(scores))*0.3 {
			out = append(out, "Consider talking to a mental health professional", "Try a new hobby or activity")
		}
	}

	words := classifier.Tokenize(recentJournal)
	if slices.Contains(words, "work") || slices.Contains(words, "stress") {
		out = append(out, "Take a short break from work", "Practice progressive muscle relaxation")
	}
	if slices.Contains(words, "sleep") || slices.Contains(words, "tired") {
		out = append(out, "Establish a consistent sleep schedule", "Avoid screens 1 hour before bedtime")
	}

	if len(out) > MaxWellnessSuggestions {
		out = out[:MaxWellnessSuggestions]
	}
	return out
}

// WellnessPlan is the general plan offered when no personalised one is available
func WellnessPlan() []WellnessSuggestion {
	return []WellnessSuggestion{
		{
			Category:   "mindfulness",
			Suggestion: "Practice 5 minutes of meditation daily",
			Priority:   "high",
			Reasoning:  "Meditation can help reduce stress and improve mental clarity",
		},
		{
			Category:   "exercise",
			Suggestion: "Take a 20-minute walk outside",
			Priority:   "medium",
			Reasoning:  "Physical activity releases endorphins and improves mood",
		},
		{
			Category:   "sleep",
			Suggestion: "Establish a consistent bedtime routine",
			Priority:   "high",
			Reasoning:  "Good sleep is essential for mental health and emotional regulation",
		},
		{
			Category:   "social",
			Suggestion: "Reach out to a friend or family member",
			Priority:   "medium",
			Reasoning:  "Social connections provide emotional support and reduce feelings of isolation",
		},
	}
}
