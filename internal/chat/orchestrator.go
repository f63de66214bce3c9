// Package chat ties prompt construction, provider calls and persistence into
// one request flow shared by every chat endpoint variant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ent0n29/chatrelay/internal/observability"
	"github.com/ent0n29/chatrelay/internal/prompt"
	"github.com/ent0n29/chatrelay/internal/provider"
	"github.com/ent0n29/chatrelay/internal/store"
)

var (
	// ErrEmptyMessage rejects a request with no message text. Detected before
	// any side effect.
	ErrEmptyMessage = errors.New("message is required")
	// ErrAuthRequired rejects an unauthenticated request that names a
	// conversation: persistence always requires an owning principal.
	ErrAuthRequired = errors.New("authentication required for conversation history")
)

// Request is one inbound chat call. When ConversationID is set the stored
// history wins and the turn is persisted; otherwise the inline History (if
// any) is used and nothing is written.
type Request struct {
	Message        string             `json:"message"`
	ConversationID string             `json:"conversation_id,omitempty"`
	History        []provider.Message `json:"history,omitempty"`
}

// Response carries the assistant reply.
type Response struct {
	Reply string `json:"reply"`
}

// Orchestrator validates a request, assembles the outbound message sequence,
// invokes a provider client and persists the resulting turn pair.
type Orchestrator struct {
	store   store.Store
	prompts *prompt.Builder
	metrics *observability.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewOrchestrator(st store.Store, prompts *prompt.Builder, metrics *observability.Metrics, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:   st,
		prompts: prompts,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Respond runs one turn against the given provider client on behalf of
// principal (empty for anonymous calls).
func (o *Orchestrator) Respond(ctx context.Context, client provider.Client, principal string, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, ErrEmptyMessage
	}

	history := req.History
	persist := strings.TrimSpace(req.ConversationID) != ""
	if persist {
		if principal == "" {
			return Response{}, ErrAuthRequired
		}
		stored, err := o.store.GetMessages(ctx, principal, req.ConversationID)
		if err != nil {
			return Response{}, err
		}
		history = make([]provider.Message, 0, len(stored))
		for _, m := range stored {
			history = append(history, provider.Message{Role: m.Role, Content: m.Content})
		}
	}

	systemPrompt := o.prompts.SystemPrompt(o.now())

	start := time.Now()
	reply, err := client.Complete(ctx, systemPrompt, history, message)
	o.metrics.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		o.metrics.ChatRequests.WithLabelValues(client.Name(), "provider_error").Inc()
		o.metrics.ProviderErrors.WithLabelValues(client.Name(), errorCode(err)).Inc()
		return Response{}, err
	}

	if persist {
		// Two independent writes; a user turn without its assistant turn is
		// an accepted partial state, so a failure here does not void the
		// reply that the provider already produced.
		if persistErr := o.persistTurn(ctx, req.ConversationID, message, reply); persistErr != nil {
			o.log.Error("persist turn failed", "conversation_id", req.ConversationID, "error", persistErr)
		} else {
			o.metrics.TurnsPersisted.Inc()
		}
	}

	o.metrics.ChatRequests.WithLabelValues(client.Name(), "ok").Inc()
	return Response{Reply: reply}, nil
}

func (o *Orchestrator) persistTurn(ctx context.Context, conversationID, userMessage, reply string) error {
	if _, err := o.store.AppendMessage(ctx, conversationID, store.RoleUser, userMessage); err != nil {
		return fmt.Errorf("append user turn: %w", err)
	}
	if _, err := o.store.AppendMessage(ctx, conversationID, store.RoleAssistant, reply); err != nil {
		return fmt.Errorf("append assistant turn: %w", err)
	}
	return nil
}

func errorCode(err error) string {
	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("http_%d", httpErr.Status)
	}
	var transportErr *provider.TransportError
	if errors.As(err, &transportErr) {
		return "transport"
	}
	return "unknown"
}
