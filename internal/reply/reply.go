// Package reply maps command envelopes to the three-digit SMTP reply
// codes the transport writes to the wire. The mapping is part of the
// protocol contract: clients key their behavior off these exact codes.
package reply

import (
	"github.com/lawnchairsociety/DevSmtp/internal/command"
)

// Code is an SMTP reply status code.
type Code int

const (
	CodeSystemStatus    Code = 211
	CodeHelpMessage     Code = 214
	CodeServiceReady    Code = 220
	CodeServiceClosing  Code = 221
	CodeOK              Code = 250
	CodeCannotVerify    Code = 252
	CodeStartMailInput  Code = 354
	CodeLocalError      Code = 451
	CodeUnrecognized    Code = 500
	CodeSyntaxError     Code = 501
	CodeNotImplemented  Code = 502
	CodeBadSequence     Code = 503
	CodeMailboxUnavail  Code = 550
	CodeTransactionFail Code = 554
)

// For translates a handler result into the reply code the client must
// receive for that verb.
func For(res command.Result) Code {
	if res.Err == nil {
		switch res.Verb {
		case command.VerbQuit:
			return CodeServiceClosing
		case command.VerbHelp:
			return CodeHelpMessage
		default:
			return CodeOK
		}
	}

	switch res.Err.Kind {
	case command.KindSyntax:
		return CodeSyntaxError
	case command.KindBadSequence:
		return CodeBadSequence
	case command.KindNotImplemented:
		return CodeNotImplemented
	case command.KindStore:
		return CodeLocalError
	case command.KindUnrecognized:
		return CodeUnrecognized
	default:
		return CodeTransactionFail
	}
}

// Text returns the human-readable reason rendered next to the code. For
// failures this is derived from the envelope's error message; internal
// cause chains are never exposed to the wire.
func Text(res command.Result) string {
	if res.Err == nil {
		if res.Text != "" {
			return res.Text
		}
		if res.Verb == command.VerbQuit {
			return "Bye"
		}
		return "OK"
	}
	return res.Err.Message
}
