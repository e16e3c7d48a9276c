// Package query holds the read-only operations against the message
// store. Every handler follows the same discipline: check cancellation
// before touching the store and propagate it unwrapped; wrap any store
// failure in a typed Error inside the result envelope; treat absence as
// a successful outcome.
package query

import "fmt"

// Op identifies which query failed.
type Op string

const (
	OpGetMessages         Op = "GetMessages"
	OpFindMessageByID     Op = "FindMessageById"
	OpFindMessagesByEmail Op = "FindMessagesByEmail"
)

// Error describes one query failure with its operation, a
// human-readable message, and the wrapped store cause.
type Error struct {
	Op      Op
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}
