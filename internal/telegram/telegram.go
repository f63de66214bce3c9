// Package telegram is a minimal Telegram Bot API client covering the single
// outbound call the relay needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Chat identifies the external chat an update came from.
type Chat struct {
	ID int64 `json:"id"`
}

// IncomingMessage is the inbound message fragment the relay cares about.
type IncomingMessage struct {
	Text string `json:"text"`
	Chat Chat   `json:"chat"`
}

// Update is the Telegram webhook payload shape.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// Client sends messages through the Bot API.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base (normally
// "https://api.telegram.org"; overridable for tests) and bot token. The
// timeout bounds every delivery call so a slow platform endpoint cannot
// stall a relay worker.
func NewClient(apiBase, botToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiBase: strings.TrimRight(strings.TrimSpace(apiBase), "/") + "/bot" + strings.TrimSpace(botToken),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers text to the given chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID: chatID,
		// Bot API rejects messages above 4096 characters.
		Text: truncate(text, 3900),
	})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/sendMessage", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage request failed: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage status %d: %s", res.StatusCode, truncate(string(body), 400))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parse sendMessage response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram sendMessage rejected: %s", parsed.Description)
	}
	return nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
