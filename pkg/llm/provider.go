package llm

import (
	"context"
	"time"
)

// Provider defines the interface for interacting with LLM backends.
// Implementations handle protocol-specific details such as request
// formatting, authentication, and response parsing.
type Provider interface {
	// Complete sends a chat completion request and returns the full response.
	// tools may be nil; providers that report SupportsTools() == false must
	// ignore it.
	Complete(ctx context.Context, messages []Message, tools []Tool) (*Response, error)

	// SupportsTools reports whether the backing model accepts a native
	// structured tool-calling interface. Callers fall back to a textual
	// function-call grammar when it returns false.
	SupportsTools() bool
}

// Config holds common configuration for LLM providers.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32

	// Timeout bounds a single completion call. Generation backends can be
	// slow, so the default is deliberately generous.
	Timeout time.Duration

	// NativeTools enables the structured tool-calling interface for models
	// that support it.
	NativeTools bool
}

// DefaultTimeout is applied when Config.Timeout is zero.
const DefaultTimeout = 3 * time.Minute
