// Package store persists conversations and their messages, scoped to the
// owning principal. A conversation another principal owns is reported as
// absent, never as forbidden.
package store

import (
	"context"
	"errors"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound covers both a missing conversation and one owned by a
// different principal, so lookups cannot leak existence.
var ErrNotFound = errors.New("conversation not found")

const titleLayout = "Jan 2, 2006 3:04 PM"

// Conversation is a principal-owned container for messages.
type Conversation struct {
	ID        string    `json:"id"`
	Principal string    `json:"-"`
	Title     string    `json:"title"`
	StartedAt time.Time `json:"started_at"`
}

// Message is one immutable turn inside a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"-"`
	Role           string    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Store persists and retrieves conversations and messages.
type Store interface {
	CreateConversation(ctx context.Context, principal string) (Conversation, error)
	// ListConversations returns the principal's conversations newest-first.
	ListConversations(ctx context.Context, principal string) ([]Conversation, error)
	// GetMessages returns a conversation's messages oldest-first, or
	// ErrNotFound when it does not exist or is not owned by principal.
	GetMessages(ctx context.Context, principal, conversationID string) ([]Message, error)
	AppendMessage(ctx context.Context, conversationID, role, content string) (Message, error)
	// DeleteConversation removes the conversation and all of its messages.
	DeleteConversation(ctx context.Context, principal, conversationID string) error
	Close() error
}

func titleFor(startedAt time.Time) string {
	return startedAt.Format(titleLayout)
}

func validRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
