// Package command models every SMTP verb as a typed command executed
// against session and store state. Each verb has exactly one handler;
// all handlers resolve to a Result envelope so the transport can map
// outcomes to wire status codes without ever seeing a raw exception.
//
// The one deliberate hole in the envelope is cancellation: when the
// caller's context fires, handlers return the context error through the
// second return value, unwrapped, so "caller abandoned the operation"
// stays distinguishable from "the operation failed".
package command

import "context"

// Verb is an SMTP protocol command keyword.
type Verb string

const (
	VerbHelo Verb = "HELO"
	VerbMail Verb = "MAIL"
	VerbRcpt Verb = "RCPT"
	VerbData Verb = "DATA"
	VerbRset Verb = "RSET"
	VerbNoop Verb = "NOOP"
	VerbQuit Verb = "QUIT"
	VerbVrfy Verb = "VRFY"
	VerbExpn Verb = "EXPN"
	VerbHelp Verb = "HELP"
	VerbTurn Verb = "TURN"
	VerbSend Verb = "SEND"
	VerbSoml Verb = "SOML"
	VerbSaml Verb = "SAML"
)

// Command is a decoded SMTP verb plus the raw arguments it carries.
// Argument validation happens inside the handler so that format errors
// become failure envelopes, never panics or stray errors.
type Command interface {
	Verb() Verb
}

// Helo records the client identification and resets the session.
type Helo struct{ Hostname string }

// Mail opens a mail transaction with the given reverse-path.
type Mail struct{ From string }

// Rcpt appends one forward-path to the open transaction.
type Rcpt struct{ To string }

// Data finalizes the open transaction with the message body. ID is
// optional; when empty a fresh identifier is generated.
type Data struct {
	ID   string
	Body string
}

// Rset discards the open transaction.
type Rset struct{}

// Noop does nothing.
type Noop struct{}

// Quit signals session termination.
type Quit struct{}

// Vrfy asks the server to verify a mailbox.
type Vrfy struct{ Address string }

// Expn asks the server to expand a mailing list.
type Expn struct{ List string }

// Help requests command help, optionally for one topic.
type Help struct{ Topic string }

// Turn asks the server to swap roles (obsolete).
type Turn struct{}

// Send initiates a deliver-to-terminal transaction (obsolete).
type Send struct{ From string }

// Soml initiates a send-or-mail transaction (obsolete).
type Soml struct{ From string }

// Saml initiates a send-and-mail transaction (obsolete).
type Saml struct{ From string }

func (Helo) Verb() Verb { return VerbHelo }
func (Mail) Verb() Verb { return VerbMail }
func (Rcpt) Verb() Verb { return VerbRcpt }
func (Data) Verb() Verb { return VerbData }
func (Rset) Verb() Verb { return VerbRset }
func (Noop) Verb() Verb { return VerbNoop }
func (Quit) Verb() Verb { return VerbQuit }
func (Vrfy) Verb() Verb { return VerbVrfy }
func (Expn) Verb() Verb { return VerbExpn }
func (Help) Verb() Verb { return VerbHelp }
func (Turn) Verb() Verb { return VerbTurn }
func (Send) Verb() Verb { return VerbSend }
func (Soml) Verb() Verb { return VerbSoml }
func (Saml) Verb() Verb { return VerbSaml }

// Handler executes one command against session/store state. The error
// return carries only context cancellation; every other failure is
// reported through the Result envelope.
type Handler interface {
	Execute(ctx context.Context, cmd Command) (Result, error)
}
