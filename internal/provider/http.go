package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configures one HTTPClient variant.
type Options struct {
	// Name labels the variant in errors and metrics.
	Name string
	// BaseURL is the API root, e.g. "https://api.groq.com/openai/v1".
	BaseURL string
	Model   string
	APIKey  string
	// ExtraHeaders carries optional routing headers (OpenRouter wants
	// HTTP-Referer and X-Title alongside the bearer token).
	ExtraHeaders map[string]string
	Timeout      time.Duration
}

// HTTPClient calls an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	opts   Options
	client *http.Client
}

func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	return &HTTPClient{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

func (c *HTTPClient) Name() string { return c.opts.Name }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs a single request/response exchange. The outbound message
// slice is always system prompt first, then history oldest-first, then the
// new user turn last.
func (c *HTTPClient) Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})

	payload, err := json.Marshal(chatRequest{
		Model:    c.opts.Model,
		Messages: messages,
	})
	if err != nil {
		return "", &TransportError{Provider: c.opts.Name, Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Provider: c.opts.Name, Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	for k, v := range c.opts.ExtraHeaders {
		req.Header.Set(k, v)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: c.opts.Name, Op: "send request", Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", &TransportError{Provider: c.opts.Name, Op: "read response", Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &HTTPError{
			Provider: c.opts.Name,
			Status:   res.StatusCode,
			Body:     truncate(string(body), 4<<10),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &TransportError{Provider: c.opts.Name, Op: "decode response", Err: fmt.Errorf("%w: %s", err, truncate(string(body), 400))}
	}
	if len(parsed.Choices) == 0 {
		return "", &TransportError{Provider: c.opts.Name, Op: "decode response", Err: errors.New("no choices in completion body")}
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
