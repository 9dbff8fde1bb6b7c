package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"
)

// apologyReply is returned when the provider answers successfully but
// with zero choices. A soft failure, not an error.
const apologyReply = "I apologize, but I couldn't generate a response. Please try again."

// OpenAIConfig collects everything the adapter needs. SystemPrompt is
// static configuration and never user-influenced.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	SystemPrompt   string
	MaxTokens      int
	RequestTimeout time.Duration
	Policy         Policy
}

// OpenAI is the production Client. One chat-completion request per
// attempt, bounded by RequestTimeout; retryable failures go back
// through the Policy loop.
type OpenAI struct {
	api     *openaiapi.Client
	cfg     OpenAIConfig
	policy  Policy
	timeout time.Duration
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	return newOpenAI(cfg, openaiapi.DefaultConfig(cfg.APIKey))
}

func newOpenAI(cfg OpenAIConfig, apiCfg openaiapi.ClientConfig) *OpenAI {
	policy := cfg.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultPolicy()
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{
		api:     openaiapi.NewClientWithConfig(apiCfg),
		cfg:     cfg,
		policy:  policy,
		timeout: timeout,
	}
}

func (c *OpenAI) Complete(ctx context.Context, text string) (Reply, error) {
	return c.policy.run(ctx, func() (Reply, error) {
		return c.attempt(ctx, text)
	})
}

func (c *OpenAI) attempt(ctx context.Context, text string) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []openaiapi.ChatCompletionMessage{
			{Role: openaiapi.ChatMessageRoleSystem, Content: c.cfg.SystemPrompt},
			{Role: openaiapi.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.7,
		TopP:        1.0,
	})
	if err != nil {
		return Reply{}, classify(err)
	}

	reply := Reply{
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) == 0 {
		reply.Text = apologyReply
		return reply, nil
	}
	reply.Text = strings.TrimSpace(resp.Choices[0].Message.Content)
	return reply, nil
}

// classify sorts a provider failure into the taxonomy. Status codes are
// checked first, with message signatures as a fallback for transport
// and provider-shaped errors.
func classify(err error) *UpstreamError {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests && isQuotaExhausted(apiErr) {
			return fatalErr(CategoryQuota, err)
		}
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"), strings.Contains(msg, "authentication"):
		return fatalErr(CategoryAuth, err)
	case strings.Contains(msg, "quota"):
		return fatalErr(CategoryQuota, err)
	case strings.Contains(msg, "rate limit"):
		return retryableErr(CategoryRateLimit, err)
	}
	return retryableErr(CategoryConnectivity, err)
}

func classifyStatus(status int, err error) *UpstreamError {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fatalErr(CategoryAuth, err)
	case status == http.StatusBadRequest, status == http.StatusNotFound,
		status == http.StatusUnprocessableEntity:
		return fatalErr(CategoryBadRequest, err)
	case status == http.StatusTooManyRequests:
		return retryableErr(CategoryRateLimit, err)
	case status >= 500:
		return retryableErr(CategoryProvider, err)
	default:
		return retryableErr(CategoryProvider, fmt.Errorf("unexpected status %d: %w", status, err))
	}
}

func isQuotaExhausted(apiErr *openaiapi.APIError) bool {
	if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "quota")
}
