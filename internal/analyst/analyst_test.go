package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/vibenote-server/internal/insights"
	"github.com/mrwolf/vibenote-server/internal/llm"
	"github.com/mrwolf/vibenote-server/internal/models"
)

// fakeCompleter returns canned answers and counts calls
type fakeCompleter struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	requests []llm.CompletionRequest
	reply    string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestAnalyzer(c Completer) *Analyzer {
	return New(c, nil, nil, nil)
}

// jsonKeys returns the sorted top-level keys of v's JSON form
func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const journalJSON = `Sure! Here is the analysis:
{
  "summary": "A productive day at work with a sense of pride.",
  "emotions": ["proud", "content"],
  "patterns": ["reflective tone"],
  "suggestions": ["Note what went well", "Rest tonight", "Share the win", "Extra"],
  "overall_sentiment": "Positive",
  "key_themes": ["work"]
}
Let me know if you need more {help}.`

func TestAnalyzeJournalRemote(t *testing.T) {
	fc := &fakeCompleter{reply: journalJSON}
	a := newTestAnalyzer(fc)

	got := a.AnalyzeJournal(context.Background(), "I feel great about work today!")

	assert.Equal(t, "A productive day at work with a sense of pride.", got.Summary)
	assert.Equal(t, models.SentimentPositive, got.OverallSentiment)
	assert.Len(t, got.Suggestions, insights.MaxSuggestions)
	assert.Equal(t, 1, fc.Calls())
	assert.Equal(t, 1000, fc.requests[0].MaxTokens)
	assert.InDelta(t, 0.3, fc.requests[0].Temperature, 1e-6)
	assert.Contains(t, fc.prompts[0], "I feel great about work today!")
	assert.False(t, a.Notice().Shown())
}

func TestAnalyzeJournalFallbacks(t *testing.T) {
	text := "I feel great about work today!"
	local := insights.AnalyzeJournal(text)

	tests := []struct {
		name   string
		reply  string
		err    error
		reason string
	}{
		{"quota", "", &llm.StatusError{StatusCode: http.StatusPaymentRequired, Err: errors.New("insufficient balance")}, "quota"},
		{"server error", "", &llm.StatusError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("down")}, "status"},
		{"transport", "", errors.New("connection refused"), "transport"},
		{"timeout", "", context.DeadlineExceeded, "timeout"},
		{"empty", "   ", nil, "empty"},
		{"no json", "I cannot help with that.", nil, "no_json"},
		{"unbalanced", `{"summary": "x", "emotions": [}`, nil, "malformed"},
		{"unterminated", `{"summary": "x"`, nil, "no_json"},
		{"bad json", `{"summary": 'x'}`, nil, "malformed"},
		{"wrong type", `{"summary":"s","emotions":"happy","patterns":[],"suggestions":[],"overall_sentiment":"positive","key_themes":[]}`, nil, "malformed"},
		{"missing field", `{"summary":"s","emotions":[],"patterns":[],"suggestions":[],"overall_sentiment":"positive"}`, nil, "schema"},
		{"null field", `{"summary":"s","emotions":null,"patterns":[],"suggestions":[],"overall_sentiment":"positive","key_themes":[]}`, nil, "schema"},
		{"bad sentiment", `{"summary":"s","emotions":[],"patterns":[],"suggestions":[],"overall_sentiment":"ecstatic","key_themes":[]}`, nil, "schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{reply: tt.reply, err: tt.err}
			a := newTestAnalyzer(fc)

			got := a.AnalyzeJournal(context.Background(), text)

			assert.Equal(t, local, got)
			assert.True(t, a.Notice().Shown())
			_, err := structured(context.Background(), a, OpJournal, llm.CompletionRequest{}, llm.ExtractJSON, parseJournal)
			assert.Equal(t, tt.reason, FallbackReason(err))
		})
	}
}

func TestQuotaFallbackKeepsShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Insufficient Balance","type":"unknown_error"}}`))
	}))
	defer srv.Close()

	a := newTestAnalyzer(llm.NewClient(llm.Config{BaseURL: srv.URL, APIKey: "k"}))
	fallbackResult := a.AnalyzeJournal(context.Background(), "I feel great about work today!")

	remoteResult := newTestAnalyzer(&fakeCompleter{reply: journalJSON}).AnalyzeJournal(context.Background(), "x")

	assert.Equal(t, jsonKeys(t, remoteResult), jsonKeys(t, fallbackResult))
	assert.Equal(t, models.SentimentPositive, fallbackResult.OverallSentiment)
	assert.Contains(t, fallbackResult.KeyThemes, "work")
	assert.Contains(t, fallbackResult.Patterns, "strong emotions")
	assert.True(t, a.Notice().Shown())
}

func TestFallbackNoticeShownOnce(t *testing.T) {
	notice := NewFallbackNotice(nil)
	fc := &fakeCompleter{err: &llm.StatusError{StatusCode: http.StatusPaymentRequired}}
	a := New(fc, notice, nil, nil)

	a.AnalyzeJournal(context.Background(), "one")
	assert.True(t, notice.Shown())
	assert.False(t, notice.Show(OpJournal, "quota"), "second show must stay quiet")

	a.AnalyzeSentiment(context.Background(), []string{"two"})
	assert.True(t, notice.Shown())

	notice.Reset()
	assert.False(t, notice.Shown())
	assert.True(t, notice.Show(OpJournal, "quota"))
}

func TestMode(t *testing.T) {
	assert.Equal(t, SourceLocal, newTestAnalyzer(nil).Mode())

	fc := &fakeCompleter{reply: journalJSON}
	a := newTestAnalyzer(fc)
	assert.Equal(t, SourceRemote, a.Mode())

	fc.err = errors.New("connection refused")
	a.AnalyzeJournal(context.Background(), "rough day")
	assert.Equal(t, SourceLocal, a.Mode())
}

func TestFallbackNoticeConcurrentShow(t *testing.T) {
	notice := NewFallbackNotice(nil)
	var shown atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if notice.Show(OpChat, "status") {
				shown.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, shown.Load())
}

func TestNilClientAnswersLocally(t *testing.T) {
	a := New(nil, nil, nil, nil)

	got := a.AnalyzeJournal(context.Background(), "tired")

	assert.Equal(t, insights.AnalyzeJournal("tired"), got)
}

func TestRespondCrisisBypassesRemote(t *testing.T) {
	messages := []string{
		"I want to die",
		"honestly I WANT TO DIE but also I'm happy about the concert",
		"i think everyone would be better off dead without me",
		"I can’t take it anymore",
	}

	for _, msg := range messages {
		t.Run(msg, func(t *testing.T) {
			fc := &fakeCompleter{reply: "hello"}
			a := newTestAnalyzer(fc)

			got := a.Respond(context.Background(), msg, nil)

			assert.Equal(t, models.MessageKindCrisis, got.Kind)
			assert.True(t, got.CrisisDetected)
			assert.Equal(t, CrisisResponse, got.Content)
			assert.Equal(t, 0, fc.Calls())
		})
	}
}

func TestRespondRemote(t *testing.T) {
	fc := &fakeCompleter{reply: "That sounds like a lot. What happened?"}
	a := newTestAnalyzer(fc)

	history := make([]models.ChatMessage, 0, 8)
	for i := 0; i < 8; i++ {
		history = append(history, models.ChatMessage{Sender: models.SenderUser, Content: string(rune('a' + i))})
	}
	got := a.Respond(context.Background(), "rough day", history)

	assert.Equal(t, models.MessageKindMessage, got.Kind)
	assert.False(t, got.CrisisDetected)
	assert.Equal(t, "That sounds like a lot. What happened?", got.Content)
	assert.NotContains(t, fc.prompts[0], "user: c\n")
	assert.Contains(t, fc.prompts[0], "user: d\n")
	assert.Contains(t, fc.prompts[0], "user: h")
	assert.Equal(t, 300, fc.requests[0].MaxTokens)
}

func TestRespondFallback(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	a := newTestAnalyzer(fc)

	got := a.Respond(context.Background(), "so anxious today", nil)

	assert.Equal(t, insights.TherapeuticReply("so anxious today"), got)
	assert.Equal(t, models.MessageKindSuggestion, got.Kind)
}

func TestAnalyzeMoodPatterns(t *testing.T) {
	t.Run("remote", func(t *testing.T) {
		fc := &fakeCompleter{reply: `{"emotions":["calm"],"triggers":["walks"],"recommendations":["keep walking"]}`}
		got := newTestAnalyzer(fc).AnalyzeMoodPatterns(context.Background(), []string{"nice walk"})
		assert.Equal(t, insights.MoodPatterns{Emotions: []string{"calm"}, Triggers: []string{"walks"}, Recommendations: []string{"keep walking"}}, got)
	})

	t.Run("blank notes skip remote", func(t *testing.T) {
		fc := &fakeCompleter{reply: "{}"}
		got := newTestAnalyzer(fc).AnalyzeMoodPatterns(context.Background(), []string{"", "  "})
		assert.Empty(t, got.Emotions)
		assert.Equal(t, 0, fc.Calls())
	})

	t.Run("schema mismatch", func(t *testing.T) {
		fc := &fakeCompleter{reply: `{"emotions":["calm"]}`}
		notes := []string{"stressed at work"}
		got := newTestAnalyzer(fc).AnalyzeMoodPatterns(context.Background(), notes)
		assert.Equal(t, insights.AnalyzeMoodNotes(notes), got)
	})
}

func TestAnalyzeSentiment(t *testing.T) {
	entries := []string{"great week"}

	tests := []struct {
		name   string
		reply  string
		remote bool
	}{
		{"valid", `{"overallSentiment":"positive","confidence":0.85,"emotions":[{"emotion":"joy","intensity":0.8}],"themes":["work"]}`, true},
		{"confidence out of range", `{"overallSentiment":"positive","confidence":1.5,"emotions":[],"themes":[]}`, false},
		{"intensity missing", `{"overallSentiment":"positive","confidence":0.5,"emotions":[{"emotion":"joy"}],"themes":[]}`, false},
		{"confidence as string", `{"overallSentiment":"positive","confidence":"high","emotions":[],"themes":[]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestAnalyzer(&fakeCompleter{reply: tt.reply}).AnalyzeSentiment(context.Background(), entries)
			if tt.remote {
				assert.Equal(t, 0.85, got.Confidence)
				assert.Equal(t, []insights.EmotionIntensity{{Emotion: "joy", Intensity: 0.8}}, got.Emotions)
			} else {
				assert.Equal(t, insights.AnalyzeSentiment(entries), got)
			}
		})
	}
}

func TestAnalyzeTrends(t *testing.T) {
	entries := []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"}

	fc := &fakeCompleter{reply: `{"trend":"improving","common_themes":["work"],"growth_areas":[],"positive_patterns":["journaling"]}`}
	drafts := newTestAnalyzer(fc).AnalyzeTrends(context.Background(), entries)

	require.Len(t, drafts, 2)
	assert.Contains(t, drafts[0].Content, "improving")
	assert.Contains(t, fc.prompts[0], "e5")
	assert.NotContains(t, fc.prompts[0], "e6")

	bad := &fakeCompleter{reply: `{"trend":"sideways","common_themes":[],"growth_areas":[]}`}
	assert.Equal(t, insights.TrendInsights(entries[:5]), newTestAnalyzer(bad).AnalyzeTrends(context.Background(), entries))

	none := &fakeCompleter{}
	assert.Empty(t, newTestAnalyzer(none).AnalyzeTrends(context.Background(), nil))
	assert.Equal(t, 0, none.Calls())
}

func TestWellnessSuggestions(t *testing.T) {
	fc := &fakeCompleter{reply: `Try these: ["Walk", " ", "Stretch", "Read", "Nap", "Cook", "Draw"]`}
	got := newTestAnalyzer(fc).WellnessSuggestions(context.Background(), []int{3, 4}, "work work")
	assert.Equal(t, []string{"Walk", "Stretch", "Read", "Nap", "Cook"}, got)
	assert.Contains(t, fc.prompts[0], "Average mood score: 3.5/5")

	empty := &fakeCompleter{reply: `[]`}
	assert.Equal(t, insights.WellnessSuggestions([]int{1}, ""), newTestAnalyzer(empty).WellnessSuggestions(context.Background(), []int{1}, ""))
}

func TestWellnessPlan(t *testing.T) {
	fc := &fakeCompleter{reply: `[{"category":"Sleep","suggestion":"Wind down","priority":"HIGH","reasoning":"rest"}]`}
	got := newTestAnalyzer(fc).WellnessPlan(context.Background())
	assert.Equal(t, []insights.WellnessSuggestion{{Category: "sleep", Suggestion: "Wind down", Priority: "high", Reasoning: "rest"}}, got)

	bad := &fakeCompleter{reply: `[{"category":"astrology","suggestion":"x","priority":"high","reasoning":"y"}]`}
	assert.Equal(t, insights.WellnessPlan(), newTestAnalyzer(bad).WellnessPlan(context.Background()))
}

func TestDetectCrisis(t *testing.T) {
	assert.True(t, DetectCrisis("thinking about SUICIDE"))
	assert.True(t, DetectCrisis("I might hurt myself"))
	assert.False(t, DetectCrisis("I am dying to see that movie"))
	assert.False(t, DetectCrisis(""))
}
