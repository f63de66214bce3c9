// Package relay bridges Telegram webhook deliveries and a completion
// provider, independent of the persisted-conversation flow.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ent0n29/chatrelay/internal/observability"
	"github.com/ent0n29/chatrelay/internal/prompt"
	"github.com/ent0n29/chatrelay/internal/provider"
	"github.com/ent0n29/chatrelay/internal/telegram"
)

// Outcome is what the relay reports back to the webhook sender. It never
// reports an error: the platform only needs its delivery acknowledged.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeIgnored Outcome = "ignored"
)

// Sender delivers the reply back to the external chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Relay turns one inbound update into one completion call and one outbound
// delivery. No persistence happens on this path.
type Relay struct {
	client   provider.Client
	prompts  *prompt.Builder
	sender   Sender
	fallback string
	metrics  *observability.Metrics
	log      *slog.Logger
	now      func() time.Time
}

func New(client provider.Client, prompts *prompt.Builder, sender Sender, fallback string, metrics *observability.Metrics, log *slog.Logger) *Relay {
	if fallback == "" {
		fallback = "Oops! AI backend error."
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		client:   client,
		prompts:  prompts,
		sender:   sender,
		fallback: fallback,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Handle processes one webhook update. A payload missing the message text or
// chat id is acknowledged and dropped without any network call. A provider
// failure is replaced by the fallback text, and a delivery failure is logged
// only: the inbound acknowledgment never depends on the outbound call.
func (r *Relay) Handle(ctx context.Context, upd telegram.Update) Outcome {
	if upd.Message == nil || strings.TrimSpace(upd.Message.Text) == "" || upd.Message.Chat.ID == 0 {
		r.log.Warn("ignoring telegram update without chat id or text", "update_id", upd.UpdateID)
		r.metrics.RelayUpdates.WithLabelValues(string(OutcomeIgnored)).Inc()
		return OutcomeIgnored
	}

	text := strings.TrimSpace(upd.Message.Text)
	chatID := upd.Message.Chat.ID
	r.log.Info("telegram message received", "chat_id", chatID)

	reply, err := r.client.Complete(ctx, r.prompts.SystemPrompt(r.now()), nil, text)
	if err != nil {
		r.log.Error("provider call failed, using fallback reply", "provider", r.client.Name(), "error", err)
		r.metrics.ProviderErrors.WithLabelValues(r.client.Name(), "relay").Inc()
		reply = r.fallback
	}

	if err := r.sender.SendMessage(ctx, chatID, reply); err != nil {
		r.log.Error("telegram delivery failed", "chat_id", chatID, "error", err)
		r.metrics.DeliveryFailures.Inc()
	}

	r.metrics.RelayUpdates.WithLabelValues(string(OutcomeOK)).Inc()
	return OutcomeOK
}
