package ai

import (
	"context"
	"fmt"
)

// ChatProvider extends Provider with chat completion capabilities.
type ChatProvider interface {
	Provider

	// Chat sends a chat completion request and blocks until the full
	// response is available.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Message represents a single message in the conversation.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	ID      string
	Model   string
	Content string
	Usage   Usage
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RateLimitError indicates the provider's client-side rate limiter refused
// the request before it left the process.
type RateLimitError struct {
	Provider ProviderName
	Limit    float64
	Err      error
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s client (%.0f req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap returns the wrapped error
func (e *RateLimitError) Unwrap() error {
	return e.Err
}
