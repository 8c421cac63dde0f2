package mocks

import (
	"context"
	"sync"

	"github.com/cert-roster-api/internal/mailq"
)

// MockPublisher is a mock implementation of mailq.Publisher
type MockPublisher struct {
	mu           sync.Mutex
	Published    []mailq.BatchMessage
	PublishError error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, msg mailq.BatchMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.Published = append(m.Published, msg)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Messages returns a snapshot of everything published so far
func (m *MockPublisher) Messages() []mailq.BatchMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailq.BatchMessage, len(m.Published))
	copy(out, m.Published)
	return out
}
