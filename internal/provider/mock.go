package provider

import (
	"context"
	"sync"
)

// MockCall records one Complete invocation for assertions.
type MockCall struct {
	SystemPrompt string
	History      []Message
	UserMessage  string
}

// Mock is a scripted Client for tests.
type Mock struct {
	name string

	mu    sync.Mutex
	calls []MockCall

	Reply string
	Err   error
}

func NewMock(name string) *Mock {
	if name == "" {
		name = "mock"
	}
	return &Mock{name: name, Reply: "mock reply"}
}

func (m *Mock) Name() string { return m.name }

func (m *Mock) Complete(_ context.Context, systemPrompt string, history []Message, userMessage string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		SystemPrompt: systemPrompt,
		History:      append([]Message(nil), history...),
		UserMessage:  userMessage,
	})
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
