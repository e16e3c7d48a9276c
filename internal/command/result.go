package command

import (
	"fmt"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
)

// Kind classifies a command failure. One enumeration replaces a
// per-verb error type hierarchy while keeping "which verb failed and
// why" available to the transport and to tests.
type Kind int

const (
	// KindSyntax marks malformed arguments (bad address, bad hostname).
	KindSyntax Kind = iota + 1
	// KindBadSequence marks verbs issued out of protocol order.
	KindBadSequence
	// KindNotImplemented marks legacy verbs this server does not serve.
	KindNotImplemented
	// KindStore marks persistence failures during DATA.
	KindStore
	// KindUnrecognized marks verbs with no registered handler.
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindBadSequence:
		return "bad_sequence"
	case KindNotImplemented:
		return "not_implemented"
	case KindStore:
		return "store"
	case KindUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Error describes one command failure: the verb it happened on, its
// kind, a wire-safe message, and the wrapped cause when one exists.
type Error struct {
	Verb    Verb
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Verb, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed: %s", e.Verb, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Result is the uniform envelope every handler resolves to: success
// with optional payload, or a typed Error. Exactly one of the two.
type Result struct {
	Verb Verb
	// Text carries extra reply text for verbs that produce some
	// (HELP topics, DATA queue acknowledgment).
	Text string
	// Stored is the persisted message after a successful DATA.
	Stored *mail.Message
	Err    *Error
}

// Succeeded reports whether the command completed without error.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

func ok(v Verb) Result {
	return Result{Verb: v}
}

func fail(v Verb, kind Kind, msg string, cause error) Result {
	return Result{Verb: v, Err: &Error{Verb: v, Kind: kind, Message: msg, Cause: cause}}
}
