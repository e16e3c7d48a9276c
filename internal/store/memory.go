package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
)

// MemoryStore keeps captured messages in process memory, which is the
// default for a development mail-catcher: restart the server and the
// mailbox is empty again. Safe for concurrent sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	ordered []*mail.Message
	byID    map[mail.MessageID]*mail.Message
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[mail.MessageID]*mail.Message),
	}
}

// Store persists msg, rejecting duplicate IDs.
func (s *MemoryStore) Store(ctx context.Context, msg *mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ID.IsZero() {
		return fmt.Errorf("message has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[msg.ID]; exists {
		return fmt.Errorf("%q: %w", msg.ID, ErrDuplicateID)
	}
	s.ordered = append(s.ordered, msg)
	s.byID[msg.ID] = msg
	return nil
}

// Get returns all messages in insertion order.
func (s *MemoryStore) Get(ctx context.Context) ([]*mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*mail.Message, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// FindByID returns the message with the given id, or (nil, nil).
func (s *MemoryStore) FindByID(ctx context.Context, id mail.MessageID) (*mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byID[id], nil
}

// FindByEmail returns all messages involving addr, in insertion order.
func (s *MemoryStore) FindByEmail(ctx context.Context, addr mail.Email) ([]*mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*mail.Message
	for _, msg := range s.ordered {
		if msg.Involves(addr) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Len returns the number of stored messages.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}
