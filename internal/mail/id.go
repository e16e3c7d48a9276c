package mail

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMessageIDFormat is wrapped by every MessageID parse failure.
var ErrMessageIDFormat = errors.New("message id cannot be empty")

// MessageID identifies one captured message. The zero value is "absent";
// a non-zero MessageID is guaranteed non-empty and non-whitespace.
type MessageID struct {
	value string
}

// ParseMessageID validates s and returns it as a MessageID. The returned
// error wraps ErrMessageIDFormat when s is empty or whitespace-only.
func ParseMessageID(s string) (MessageID, error) {
	if strings.TrimSpace(s) == "" {
		return MessageID{}, fmt.Errorf("%q: %w", s, ErrMessageIDFormat)
	}
	return MessageID{value: s}, nil
}

// NewMessageID generates a fresh random identifier, a lowercase UUID.
func NewMessageID() MessageID {
	return MessageID{value: uuid.NewString()}
}

// MustMessageID parses s and panics on failure. For tests.
func MustMessageID(s string) MessageID {
	id, err := ParseMessageID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the identifier value.
func (id MessageID) String() string {
	return id.value
}

// IsZero reports whether id is the absent value.
func (id MessageID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (id MessageID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, applying the same
// validation as ParseMessageID.
func (id *MessageID) UnmarshalText(data []byte) error {
	parsed, err := ParseMessageID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
