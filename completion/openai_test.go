package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAPIErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		category  string
		retryable bool
	}{
		{"bad key", &openaiapi.APIError{HTTPStatusCode: 401, Message: "Incorrect API key"}, CategoryAuth, false},
		{"forbidden", &openaiapi.APIError{HTTPStatusCode: 403, Message: "forbidden"}, CategoryAuth, false},
		{"malformed", &openaiapi.APIError{HTTPStatusCode: 400, Message: "bad request"}, CategoryBadRequest, false},
		{"unknown model", &openaiapi.APIError{HTTPStatusCode: 404, Message: "model not found"}, CategoryBadRequest, false},
		{"rate limit", &openaiapi.APIError{HTTPStatusCode: 429, Message: "Rate limit reached"}, CategoryRateLimit, true},
		{"quota by code", &openaiapi.APIError{HTTPStatusCode: 429, Code: "insufficient_quota", Message: "billing"}, CategoryQuota, false},
		{"quota by message", &openaiapi.APIError{HTTPStatusCode: 429, Message: "You exceeded your current quota"}, CategoryQuota, false},
		{"server error", &openaiapi.APIError{HTTPStatusCode: 500, Message: "internal"}, CategoryProvider, true},
		{"overloaded", &openaiapi.APIError{HTTPStatusCode: 503, Message: "overloaded"}, CategoryProvider, true},
		{"request error", &openaiapi.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")}, CategoryProvider, true},
		{"dial failure", errors.New("dial tcp: connection refused"), CategoryConnectivity, true},
		{"auth by message", errors.New("authentication failed for request"), CategoryAuth, false},
		{"quota msg fallback", errors.New("monthly quota exceeded"), CategoryQuota, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ue := classify(tc.err)
			assert.Equal(t, tc.category, ue.Category)
			assert.Equal(t, tc.retryable, ue.Retryable)
		})
	}
}

// testOpenAI points the adapter at a local stub provider.
func testOpenAI(t *testing.T, handler http.HandlerFunc, attempts int) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	apiCfg := openaiapi.DefaultConfig("test-key")
	apiCfg.BaseURL = srv.URL + "/v1"

	c := newOpenAI(OpenAIConfig{
		Model:        "gpt-3.5-turbo",
		SystemPrompt: "You are a test assistant.",
		MaxTokens:    100,
		Policy: Policy{
			MaxAttempts: attempts,
			BaseDelay:   time.Second,
			CapDelay:    8 * time.Second,
			sleep:       func(ctx context.Context, d time.Duration) error { return nil },
		},
	}, apiCfg)
	return c
}

func TestOpenAICompleteSuccess(t *testing.T) {
	c := testOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "cmpl-1", "object": "chat.completion", "model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  hello there  "}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`)
	}, 3)

	reply, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply.Text)
	assert.Equal(t, "gpt-3.5-turbo", reply.Model)
	assert.Equal(t, 12, reply.PromptTokens)
	assert.Equal(t, 3, reply.CompletionTokens)
}

func TestOpenAIEmptyChoicesIsSoftFailure(t *testing.T) {
	c := testOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "cmpl-2", "object": "chat.completion", "model": "gpt-3.5-turbo", "choices": []}`)
	}, 3)

	reply, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, reply.Text)
}

func TestOpenAIAuthFailureIsFatalAfterOneAttempt(t *testing.T) {
	calls := 0
	c := testOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`)
	}, 3)

	_, err := c.Complete(context.Background(), "hi")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, CategoryAuth, ue.Category)
	assert.False(t, ue.Retryable)
	assert.Equal(t, 1, calls)
}

func TestOpenAIRateLimitRetriesThenSucceeds(t *testing.T) {
	calls := 0
	c := testOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error": {"message": "Rate limit reached", "type": "requests"}}`)
			return
		}
		fmt.Fprint(w, `{
			"id": "cmpl-3", "object": "chat.completion", "model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "recovered"}}]
		}`)
	}, 3)

	reply, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Text)
	assert.Equal(t, 3, calls)
}
