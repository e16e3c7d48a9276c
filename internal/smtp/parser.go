package smtp

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/DevSmtp/internal/command"
)

// errSyntax marks a line the parser could not decode into a command;
// the session renders it as a 501 reply.
type errSyntax struct {
	reason string
}

func (e *errSyntax) Error() string {
	return e.reason
}

// unknownCommand carries a verb with no registered handler through to
// the dispatcher, which answers with the unrecognized envelope.
type unknownCommand struct {
	verb command.Verb
}

func (u unknownCommand) Verb() command.Verb {
	return u.verb
}

// ParseLine decodes one wire line into a typed command. Address and
// hostname content is not validated here; the handlers own that, so a
// bad address still produces a proper failure envelope. Only structural
// problems (missing FROM:/TO: markers, missing arguments) fail parsing.
func ParseLine(line string) (command.Command, error) {
	verb, args := splitVerb(line)

	switch verb {
	case "HELO", "EHLO":
		if args == "" {
			return nil, &errSyntax{reason: "missing hostname"}
		}
		return command.Helo{Hostname: args}, nil
	case "MAIL":
		from, err := pathArgument(args, "FROM:")
		if err != nil {
			return nil, err
		}
		return command.Mail{From: from}, nil
	case "RCPT":
		to, err := pathArgument(args, "TO:")
		if err != nil {
			return nil, err
		}
		return command.Rcpt{To: to}, nil
	case "DATA":
		return command.Data{}, nil
	case "RSET":
		return command.Rset{}, nil
	case "NOOP":
		return command.Noop{}, nil
	case "QUIT":
		return command.Quit{}, nil
	case "VRFY":
		return command.Vrfy{Address: stripAngles(args)}, nil
	case "EXPN":
		return command.Expn{List: args}, nil
	case "HELP":
		return command.Help{Topic: args}, nil
	case "TURN":
		return command.Turn{}, nil
	case "SEND":
		from, err := pathArgument(args, "FROM:")
		if err != nil {
			return nil, err
		}
		return command.Send{From: from}, nil
	case "SOML":
		from, err := pathArgument(args, "FROM:")
		if err != nil {
			return nil, err
		}
		return command.Soml{From: from}, nil
	case "SAML":
		from, err := pathArgument(args, "FROM:")
		if err != nil {
			return nil, err
		}
		return command.Saml{From: from}, nil
	default:
		return unknownCommand{verb: command.Verb(verb)}, nil
	}
}

// splitVerb separates the uppercased verb from its argument string.
func splitVerb(line string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	verb := strings.ToUpper(parts[0])
	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return verb, args
}

// pathArgument extracts the address from a "FROM:<addr>" or "TO:<addr>"
// argument, tolerating lowercase markers and a space after the colon.
func pathArgument(args, marker string) (string, error) {
	if !strings.HasPrefix(strings.ToUpper(args), marker) {
		return "", &errSyntax{reason: fmt.Sprintf("expected %s<address>", marker)}
	}
	addr := strings.TrimSpace(args[len(marker):])

	// ESMTP parameters (SIZE=..., BODY=...) follow the path.
	if idx := strings.Index(addr, " "); idx != -1 {
		addr = addr[:idx]
	}
	return stripAngles(addr), nil
}

func stripAngles(addr string) string {
	addr = strings.TrimPrefix(addr, "<")
	return strings.TrimSuffix(addr, ">")
}
