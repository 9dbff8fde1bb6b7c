// Package completion wraps the outbound call to the language-model
// provider, including retry/backoff and failure classification.
package completion

import (
	"context"
	"fmt"
)

// Reply is a successful completion.
type Reply struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client generates a reply for a single user message.
type Client interface {
	Complete(ctx context.Context, text string) (Reply, error)
}

// Failure categories. Stable strings, surfaced to operators and (as a
// code) to clients.
const (
	CategoryAuth         = "auth"
	CategoryBadRequest   = "bad_request"
	CategoryQuota        = "quota"
	CategoryRateLimit    = "rate_limit"
	CategoryConnectivity = "connectivity"
	CategoryProvider     = "provider"
)

// UpstreamError is a classified provider failure. Retryable failures
// re-enter the backoff loop; fatal ones never do.
type UpstreamError struct {
	Category  string
	Retryable bool
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failure: %v", e.Category, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func retryableErr(category string, err error) *UpstreamError {
	return &UpstreamError{Category: category, Retryable: true, Err: err}
}

func fatalErr(category string, err error) *UpstreamError {
	return &UpstreamError{Category: category, Retryable: false, Err: err}
}
