package classifier

// keywordSet is one labelled keyword list. Lists are ordered slices so
// results come back in declaration order, not map order.
type keywordSet struct {
	label    string
	keywords []string
}

// Emotion tags
const (
	EmotionHappy   = "happy"
	EmotionSad     = "sad"
	EmotionAnxious = "anxious"
	EmotionAngry   = "angry"
	EmotionCalm    = "calm"
	EmotionTired   = "tired"
	EmotionNeutral = "neutral"
)

var emotionVocabulary = []keywordSet{
	{EmotionHappy, []string{"happy", "joy", "excited", "great", "wonderful", "amazing", "love", "loved"}},
	{EmotionSad, []string{"sad", "depressed", "down", "upset", "crying", "tears", "lonely", "miss"}},
	{EmotionAnxious, []string{"anxious", "worried", "stress", "stressed", "nervous", "fear", "scared"}},
	{EmotionAngry, []string{"angry", "mad", "frustrated", "annoyed", "irritated", "hate"}},
	{EmotionCalm, []string{"calm", "peaceful", "relaxed", "content", "satisfied", "okay"}},
	{EmotionTired, []string{"tired", "exhausted", "drained", "fatigued", "sleepy"}},
}

// Theme tags
const (
	ThemeWork          = "work"
	ThemeFamily        = "family"
	ThemeHealth        = "health"
	ThemeRelationships = "relationships"
	ThemeSchool        = "school"
	ThemeHobbies       = "hobbies"
)

var themeVocabulary = []keywordSet{
	{ThemeWork, []string{"work", "job", "office", "meeting", "project", "boss", "colleague"}},
	{ThemeFamily, []string{"family", "mom", "dad", "parent", "child", "son", "daughter", "sibling"}},
	{ThemeHealth, []string{"health", "sick", "doctor", "exercise", "gym", "diet", "sleep"}},
	{ThemeRelationships, []string{"friend", "partner", "boyfriend", "girlfriend", "date", "relationship"}},
	{ThemeSchool, []string{"school", "study", "exam", "test", "homework", "class", "teacher"}},
	{ThemeHobbies, []string{"hobby", "game", "music", "art", "sport", "reading", "cooking"}},
}

var positiveWords = wordSet("good", "great", "amazing", "wonderful", "happy", "love", "excited", "joy")

var negativeWords = wordSet("bad", "terrible", "awful", "sad", "angry", "hate", "worried", "stress")

// EmotionVocabulary returns the emotion tags in declaration order.
func EmotionVocabulary() []string {
	return labels(emotionVocabulary)
}

// ThemeVocabulary returns the theme tags in declaration order.
func ThemeVocabulary() []string {
	return labels(themeVocabulary)
}

func labels(sets []keywordSet) []string {
	out := make([]string, len(sets))
	for i, s := range sets {
		out[i] = s.label
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
