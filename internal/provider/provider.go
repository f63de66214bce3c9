// Package provider abstracts the external completion services the relay can
// talk to. Every variant is an OpenAI-compatible chat-completions endpoint
// distinguished by base URL, auth token, optional routing headers and model id.
package provider

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn in the provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client executes a single completion exchange. Implementations never retry:
// one call, one outcome.
type Client interface {
	// Name identifies the configured variant, e.g. "groq" or "openrouter".
	Name() string
	// Complete sends [system] + history (oldest first) + [user message], in
	// exactly that order, and returns the trimmed assistant reply.
	Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) (string, error)
}

// HTTPError reports a non-success status from the upstream provider. The
// caller surfaces it as a service-level failure, never as a crash.
type HTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Status, e.Body)
}

// TransportError reports a network failure or an unintelligible response body.
type TransportError struct {
	Provider string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
