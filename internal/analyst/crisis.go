package analyst

import (
	"strings"

	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/models"
)

var crisisPhrases = []string{
	"suicide",
	"kill myself",
	"want to die",
	"end it all",
	"no reason to live",
	"self-harm",
	"hurt myself",
	"cut myself",
	"overdose",
	"overdosing",
	"can't take it anymore",
	"life is not worth living",
	"better off dead",
}

// CrisisResponse is returned verbatim whenever a crisis phrase is present
const CrisisResponse = "I'm very concerned about what you're sharing. Your feelings are valid, and you deserve support. Please reach out to a mental health professional immediately. You can call the National Suicide Prevention Lifeline at 988 or text HOME to 741741 for the Crisis Text Line. You're not alone, and there are people who want to help you."

// DetectCrisis matches the fixed self-harm phrase list as case-insensitive
// substrings. Curly apostrophes are folded so "can’t" matches "can't".
func DetectCrisis(message string) bool {
	lower := strings.ToLower(strings.ReplaceAll(message, "’", "'"))
	for _, phrase := range crisisPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func crisisReply() insights.Reply {
	return insights.Reply{
		Content:        CrisisResponse,
		Kind:           models.MessageKindCrisis,
		CrisisDetected: true,
	}
}
