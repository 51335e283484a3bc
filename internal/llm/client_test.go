package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "deepseek-chat",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})

	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestCompleteSendsSingleUserMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("  hello there  ")))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "m1"})
	text, err := c.Complete(context.Background(), CompletionRequest{Prompt: "hi", MaxTokens: 300, Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, "m1", got["model"])
	assert.EqualValues(t, 300, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hi", msgs[0].(map[string]any)["content"])
}

func TestCompleteStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantQuota bool
	}{
		{"quota with error body", http.StatusPaymentRequired, `{"error":{"message":"Insufficient Balance","type":"unknown_error"}}`, true},
		{"quota with plain body", http.StatusPaymentRequired, `payment required`, true},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, false},
		{"rate limited", http.StatusTooManyRequests, `slow down`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := completionServer(t, tt.status, tt.body)
			c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})

			_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x"})

			require.Error(t, err)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.wantQuota, IsQuotaExhausted(err))
		})
	}
}

func TestCompleteEmpty(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK, completionBody("   "))
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})

	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x"})

	assert.True(t, errors.Is(err, ErrEmptyCompletion))
}

func TestCompleteDoesNotRetry(t *testing.T) {
	srv, calls := completionServer(t, http.StatusBadGateway, `bad gateway`)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})

	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x"})

	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestHealthCheck(t *testing.T) {
	ok, _ := completionServer(t, http.StatusOK, `{"object":"list","data":[{"id":"deepseek-chat","object":"model"}]}`)
	assert.NoError(t, NewClient(Config{BaseURL: ok.URL, APIKey: "k"}).HealthCheck(context.Background()))

	denied, _ := completionServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)
	err := NewClient(Config{BaseURL: denied.URL, APIKey: "k"}).HealthCheck(context.Background())
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}
