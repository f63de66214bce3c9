package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/chatrelay/internal/chat"
	"github.com/ent0n29/chatrelay/internal/config"
	"github.com/ent0n29/chatrelay/internal/observability"
	"github.com/ent0n29/chatrelay/internal/provider"
	"github.com/ent0n29/chatrelay/internal/relay"
	"github.com/ent0n29/chatrelay/internal/store"
	"github.com/ent0n29/chatrelay/internal/telegram"
)

type Server struct {
	cfg          config.Config
	orchestrator *chat.Orchestrator
	providers    *provider.Registry
	store        store.Store
	relay        *relay.Relay
	auth         Authenticator
	metrics      *observability.Metrics
	log          *slog.Logger
}

func New(cfg config.Config, orchestrator *chat.Orchestrator, providers *provider.Registry, st store.Store, rel *relay.Relay, auth Authenticator, metrics *observability.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		providers:    providers,
		store:        st,
		relay:        rel,
		auth:         auth,
		metrics:      metrics,
		log:          log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.withPrincipal)
		r.Post("/v1/chat/{provider}", s.handleChat)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePrincipal)
			r.Post("/v1/conversations", s.handleCreateConversation)
			r.Get("/v1/conversations", s.handleListConversations)
			r.Get("/v1/conversations/{id}/messages", s.handleGetMessages)
			r.Delete("/v1/conversations/{id}", s.handleDeleteConversation)
		})
	})

	r.Get("/v1/telegram/webhook", s.handleWebhookStatus)
	r.Post("/v1/telegram/webhook", s.handleWebhook)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	client, err := s.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		respondError(w, http.StatusNotFound, "unknown provider", "")
		return
	}

	var req chat.Request
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	res, err := s.orchestrator.Respond(r.Context(), client, principalFrom(r.Context()), req)
	if err != nil {
		s.respondChatError(w, client.Name(), err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// respondChatError maps orchestrator failures onto the outward error shape.
// Provider HTTP errors echo their details; transport errors stay generic and
// are only logged in full.
func (s *Server) respondChatError(w http.ResponseWriter, providerName string, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "No message provided", "")
	case errors.Is(err, chat.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, "authentication required for conversation history", "")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "conversation not found", "")
	default:
		var httpErr *provider.HTTPError
		if errors.As(err, &httpErr) {
			respondError(w, http.StatusBadGateway, providerName+" API error", httpErr.Error())
			return
		}
		s.log.Error("chat request failed", "provider", providerName, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.CreateConversation(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.log.Error("create conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	respondJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListConversations(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.log.Error("list conversations failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if list == nil {
		list = []store.Conversation{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": list})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.GetMessages(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "conversation not found", "")
		return
	}
	if err != nil {
		s.log.Error("get messages failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteConversation(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "conversation not found", "")
		return
	}
	if err != nil {
		s.log.Error("delete conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebhookStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"message": "Telegram Bot Webhook is ready."})
}

// handleWebhook always answers 200: the platform retries on error statuses
// and only needs receipt acknowledged.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var upd telegram.Update
	if err := decodeJSON(r, &upd); err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"status": string(relay.OutcomeIgnored)})
		return
	}
	outcome := s.relay.Handle(r.Context(), upd)
	respondJSON(w, http.StatusOK, map[string]any{"status": string(outcome)})
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}
