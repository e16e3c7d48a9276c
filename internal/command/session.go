package command

import "github.com/lawnchairsociety/DevSmtp/internal/mail"

// State is a session's position in the SMTP verb state machine.
type State int

const (
	// StateInitial is a fresh session, before any HELO.
	StateInitial State = iota
	// StateGreeted follows HELO; the client is identified.
	StateGreeted
	// StateSending follows MAIL; a transaction is open.
	StateSending
	// StateReadyForData follows the first RCPT.
	StateReadyForData
	// StateComplete follows a successful DATA.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateGreeted:
		return "greeted"
	case StateSending:
		return "sending"
	case StateReadyForData:
		return "ready_for_data"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Transaction is the sender and recipients accumulated between MAIL and
// a terminal DATA or RSET. It is owned by exactly one session and never
// shared, so it needs no synchronization.
type Transaction struct {
	From mail.Email
	To   []mail.Email
}

// Session holds the per-connection mutable state the handlers execute
// against: the state machine position, the client identification from
// HELO, and the open transaction when one exists.
type Session struct {
	state  State
	client string
	tx     *Transaction
}

// NewSession returns a session in the initial state.
func NewSession() *Session {
	return &Session{state: StateInitial}
}

// State returns the current state machine position.
func (s *Session) State() State {
	return s.state
}

// Client returns the hostname the client identified with, or "".
func (s *Session) Client() string {
	return s.client
}

// Transaction returns the open transaction, or nil.
func (s *Session) Transaction() *Transaction {
	return s.tx
}

// greet records the client identification and resets any open
// transaction, per RFC 5321 HELO semantics.
func (s *Session) greet(hostname string) {
	s.client = hostname
	s.tx = nil
	s.state = StateGreeted
}

// begin opens a fresh transaction with the validated sender.
func (s *Session) begin(from mail.Email) {
	s.tx = &Transaction{From: from}
	s.state = StateSending
}

// addRecipient appends one validated recipient to the open transaction.
func (s *Session) addRecipient(to mail.Email) {
	s.tx.To = append(s.tx.To, to)
	s.state = StateReadyForData
}

// complete closes the transaction after its message was persisted.
func (s *Session) complete() {
	s.tx = nil
	s.state = StateComplete
}

// reset discards the open transaction. A session that was never greeted
// stays initial; otherwise it returns to greeted.
func (s *Session) reset() {
	s.tx = nil
	if s.state != StateInitial {
		s.state = StateGreeted
	}
}

// greeted reports whether the client has identified itself.
func (s *Session) greeted() bool {
	return s.state != StateInitial
}
