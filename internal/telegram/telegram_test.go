package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendMessagePostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "123:abc", time.Second)
	if err := c.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("path = %q, want bot-token endpoint", gotPath)
	}
	if gotBody.ChatID != 42 || gotBody.Text != "hello" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestSendMessageTruncatesLongText(t *testing.T) {
	var gotBody sendMessageRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "123:abc", time.Second)
	if err := c.SendMessage(context.Background(), 42, strings.Repeat("x", 5000)); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if len(gotBody.Text) != 3900 {
		t.Fatalf("len(text) = %d, want 3900", len(gotBody.Text))
	}
}

func TestSendMessageErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "123:abc", time.Second)
	if err := c.SendMessage(context.Background(), 42, "hello"); err == nil {
		t.Fatalf("SendMessage() error = nil, want status error")
	}
}

func TestSendMessageAPIRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "123:abc", time.Second)
	err := c.SendMessage(context.Background(), 42, "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("SendMessage() error = %v, want api rejection", err)
	}
}
