package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	messages      map[string][]Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
	}
}

func (s *InMemoryStore) CreateConversation(_ context.Context, principal string) (Conversation, error) {
	if principal == "" {
		return Conversation{}, fmt.Errorf("principal is required")
	}
	c := Conversation{
		ID:        uuid.NewString(),
		Principal: principal,
		StartedAt: time.Now().UTC(),
	}
	c.Title = titleFor(c.StartedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) ListConversations(_ context.Context, principal string) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Conversation
	for _, c := range s.conversations {
		if c.Principal == principal {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (s *InMemoryStore) GetMessages(_ context.Context, principal, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[conversationID]
	if !ok || c.Principal != principal {
		return nil, ErrNotFound
	}
	return append([]Message(nil), s.messages[conversationID]...), nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, conversationID, role, content string) (Message, error) {
	if !validRole(role) {
		return Message{}, fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return Message{}, ErrNotFound
	}

	now := time.Now().UTC()
	// Keep timestamps strictly increasing within a conversation so that
	// chronological ordering is total even for back-to-back appends.
	if existing := s.messages[conversationID]; len(existing) > 0 {
		last := existing[len(existing)-1].CreatedAt
		if !now.After(last) {
			now = last.Add(time.Microsecond)
		}
	}

	m := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}
	s.messages[conversationID] = append(s.messages[conversationID], m)
	return m, nil
}

func (s *InMemoryStore) DeleteConversation(_ context.Context, principal, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	if !ok || c.Principal != principal {
		return ErrNotFound
	}
	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
