package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := NewHTTPClient(Options{
		Name:    "testprov",
		BaseURL: ts.URL,
		Model:   "test-model",
		APIKey:  "sk-test",
		ExtraHeaders: map[string]string{
			"X-Title": "chatrelay",
		},
	})
	return c, ts
}

func completionBody(reply string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonString(reply) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSuccessTrimsReply(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody("  hello there \n"))
	})

	reply, err := c.Complete(context.Background(), "sys", nil, "hi")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("reply = %q, want trimmed %q", reply, "hello there")
	}
}

func TestCompleteMessageOrdering(t *testing.T) {
	var captured chatRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("unmarshal captured request: %v", err)
		}
		io.WriteString(w, completionBody("ok"))
	})

	history := []Message{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
	}
	if _, err := c.Complete(context.Background(), "system text", history, "second question"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if captured.Model != "test-model" {
		t.Fatalf("model = %q, want %q", captured.Model, "test-model")
	}
	want := []Message{
		{Role: RoleSystem, Content: "system text"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
	}
	if len(captured.Messages) != len(want) {
		t.Fatalf("messages len = %d, want %d: %+v", len(captured.Messages), len(want), captured.Messages)
	}
	for i := range want {
		if captured.Messages[i] != want[i] {
			t.Fatalf("messages[%d] = %+v, want %+v", i, captured.Messages[i], want[i])
		}
	}
}

func TestCompleteSendsAuthAndExtraHeaders(t *testing.T) {
	var auth, title string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		title = r.Header.Get("X-Title")
		io.WriteString(w, completionBody("ok"))
	})

	if _, err := c.Complete(context.Background(), "sys", nil, "hi"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q, want bearer token", auth)
	}
	if title != "chatrelay" {
		t.Fatalf("X-Title = %q, want %q", title, "chatrelay")
	}
}

func TestCompleteHTTPErrorCarriesStatusAndBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"upstream exploded"}}`)
	})

	_, err := c.Complete(context.Background(), "sys", nil, "hi")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error = %v (%T), want *HTTPError", err, err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", httpErr.Status)
	}
	if !strings.Contains(httpErr.Body, "upstream exploded") {
		t.Fatalf("Body = %q, want upstream body", httpErr.Body)
	}
}

func TestCompleteMalformedBodyIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `this is not json`)
	})

	_, err := c.Complete(context.Background(), "sys", nil, "hi")
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v (%T), want *TransportError", err, err)
	}
	if tErr.Op != "decode response" {
		t.Fatalf("Op = %q, want %q", tErr.Op, "decode response")
	}
}

func TestCompleteEmptyChoicesIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	})

	_, err := c.Complete(context.Background(), "sys", nil, "hi")
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v (%T), want *TransportError", err, err)
	}
}

func TestCompleteConnectionFailureIsTransportError(t *testing.T) {
	c, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	_, err := c.Complete(context.Background(), "sys", nil, "hi")
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v (%T), want *TransportError", err, err)
	}
	if tErr.Op != "send request" {
		t.Fatalf("Op = %q, want %q", tErr.Op, "send request")
	}
}

func TestCompleteOmitsEmptySystemPrompt(t *testing.T) {
	var captured chatRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		io.WriteString(w, completionBody("ok"))
	})

	if _, err := c.Complete(context.Background(), "  ", nil, "hi"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != RoleUser {
		t.Fatalf("messages = %+v, want single user turn", captured.Messages)
	}
}

func TestRegistryLookup(t *testing.T) {
	a := NewMock("groq")
	b := NewMock("openrouter")
	r := NewRegistry(a, b)

	got, err := r.Get("openrouter")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name() != "openrouter" {
		t.Fatalf("Name() = %q, want %q", got.Name(), "openrouter")
	}

	if _, err := r.Get("does-not-exist"); err == nil {
		t.Fatalf("Get(unknown) error = nil, want error")
	}
}
