// Package mail holds the validated value types the command and query
// handlers operate on: Email addresses, message identifiers, and the
// captured Message itself. Values of these types are guaranteed valid
// for their lifetime; the only way to obtain one is through a Parse
// function that enforces the format.
package mail

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrEmailFormat is wrapped by every Email parse failure.
var ErrEmailFormat = errors.New("not a valid email address")

// emailPattern is a deliberately loose RFC 5322 subset: word characters
// plus common punctuation in the local part, dot-separated labels and a
// 2-6 letter top-level label in the domain.
var emailPattern = regexp.MustCompile(
	"(?i)^[\\w!#$%&'*+/=?`{|}~^-]+(?:\\.[\\w!#$%&'*+/=?`{|}~^-]+)*@(?:[a-zA-Z0-9-]+\\.)+[a-zA-Z]{2,6}$")

// Email is an immutable, syntactically valid email address. The zero
// value is "absent"; equality and map keying are by exact value, no
// case folding is applied.
type Email struct {
	value string
}

// ParseEmail validates s and returns it as an Email. The returned error
// wraps ErrEmailFormat when s does not match the address grammar.
func ParseEmail(s string) (Email, error) {
	if !emailPattern.MatchString(s) {
		return Email{}, fmt.Errorf("%q: %w", s, ErrEmailFormat)
	}
	return Email{value: s}, nil
}

// MustEmail parses s and panics on failure. For tests and constants.
func MustEmail(s string) Email {
	e, err := ParseEmail(s)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the exact address value as supplied at construction.
func (e Email) String() string {
	return e.value
}

// IsZero reports whether e is the absent value.
func (e Email) IsZero() bool {
	return e.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (e Email) MarshalText() ([]byte, error) {
	return []byte(e.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, applying the same
// validation as ParseEmail.
func (e *Email) UnmarshalText(data []byte) error {
	parsed, err := ParseEmail(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
