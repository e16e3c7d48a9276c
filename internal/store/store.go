// Package store defines the persistence contract for captured messages
// and provides the in-memory and PostgreSQL implementations. The store
// is the single shared mutable resource between sessions: implementations
// must serialize conflicting writes themselves so callers never need
// external locking.
package store

import (
	"context"
	"errors"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
)

// ErrDuplicateID is returned by Store when a message with the same ID
// has already been persisted.
var ErrDuplicateID = errors.New("message id already stored")

// Store is the persistence abstraction consumed by the command and query
// handlers. FindByID returns (nil, nil) when no message has the given id;
// FindByEmail returns an empty slice when nothing matches. Neither
// absence is an error.
type Store interface {
	// Store persists a completed message. The message must carry a
	// non-zero ID; the store never holds two messages with the same ID.
	Store(ctx context.Context, msg *mail.Message) error

	// Get returns all persisted messages in insertion order.
	Get(ctx context.Context) ([]*mail.Message, error)

	// FindByID returns the message with the given id, or (nil, nil).
	FindByID(ctx context.Context, id mail.MessageID) (*mail.Message, error)

	// FindByEmail returns all messages where addr is the sender or a
	// recipient, in insertion order.
	FindByEmail(ctx context.Context, addr mail.Email) ([]*mail.Message, error)
}
