package insights

import (
	"strings"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// Reply is an AI chat turn
type Reply struct {
	Content        string `json:"response"`
	Kind           string `json:"type"`
	CrisisDetected bool   `json:"crisis_detected"`
}

type cannedReply struct {
	cues []string
	kind string
	text string
}

var cannedReplies = []cannedReply{
	{
		cues: []string{"sad", "depressed", "down"},
		kind: models.MessageKindMessage,
		text: "Oh, I'm so sorry you're feeling this way. It really sucks when you're down, doesn't it? I want you to know that it's totally okay to feel sad - we all go through rough patches. Sometimes just talking about what's bothering us can help a little. What's been weighing on your mind? I'm here to listen, no judgment at all.",
	},
	{
		cues: []string{"anxious", "worried", "stress"},
		kind: models.MessageKindSuggestion,
		text: "Anxiety is the worst, isn't it? It can feel like your mind is running a million miles an hour. I totally get how overwhelming that can be. Have you tried taking a few slow, deep breaths? Sometimes that helps me when I'm feeling wound up. What's got you feeling so anxious right now?",
	},
	{
		cues: []string{"angry", "frustrated", "mad"},
		kind: models.MessageKindMessage,
		text: "Ugh, I can hear how frustrated you are, and honestly? You have every right to feel that way. Anger is such a draining emotion to carry around. Have you found anything that helps you blow off steam? Sometimes I just need to vent to someone who gets it. What's got you so worked up?",
	},
	{
		cues: []string{"tired", "exhausted", "overwhelmed"},
		kind: models.MessageKindMessage,
		text: "You sound completely worn out, and honestly? That's totally understandable. Life can be so exhausting sometimes. Have you been able to get any rest? Sometimes we just need to give ourselves permission to slow down and take care of ourselves. What's been draining your energy lately?",
	},
	{
		cues: []string{"lonely", "alone", "isolated"},
		kind: models.MessageKindMessage,
		text: "I'm so sorry you're feeling lonely. That's such a heavy feeling to carry around. You know what? You're not alone in feeling alone - it's something so many of us struggle with. Have you been able to reach out to anyone lately? Sometimes just a quick text to a friend can help. What's been making you feel so isolated?",
	},
}

const defaultReply = "Thanks for sharing that with me. I can tell you're going through something tough, and I want you to know I'm here for you. Sometimes just having someone to talk to can make a difference. What's on your mind? I'm all ears, and I promise - no judgment, just support."

// TherapeuticReply picks a supportive reply from cue substrings in the message.
// The first matching group wins.
func TherapeuticReply(message string) Reply {
	lower := strings.ToLower(message)
	for _, c := range cannedReplies {
		for _, cue := range c.cues {
			if strings.Contains(lower, cue) {
				return Reply{Content: c.text, Kind: c.kind}
			}
		}
	}
	return Reply{Content: defaultReply, Kind: models.MessageKindMessage}
}
