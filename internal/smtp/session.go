// Package smtp is the wire transport in front of the command core: it
// frames lines, decodes them into typed commands, runs them through the
// per-session dispatcher, and renders the resulting envelopes as SMTP
// replies.
package smtp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/lawnchairsociety/DevSmtp/internal/command"
	"github.com/lawnchairsociety/DevSmtp/internal/reply"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// codeExceededStorage is sent when a DATA body exceeds the size cap.
const codeExceededStorage = 552

// Session drives one SMTP connection: a command session, its dispatcher,
// and the buffered line I/O.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	cfg    *Config
	logger *slog.Logger
	state  *command.Session
	disp   *command.Dispatcher
}

// NewSession wires a connection to a fresh command session over st.
func NewSession(conn net.Conn, cfg *Config, st store.Store, logger *slog.Logger) *Session {
	state := command.NewSession()
	return &Session{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		cfg:    cfg,
		logger: logger,
		state:  state,
		disp:   command.NewDispatcher(state, st),
	}
}

// Run serves the connection until QUIT, EOF, or context cancellation.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()

	s.send(int(reply.CodeServiceReady), fmt.Sprintf("%s ESMTP DevSmtp ready", s.cfg.Hostname))

	for {
		if ctx.Err() != nil {
			s.send(421, "service shutting down")
			return
		}

		s.conn.SetDeadline(time.Now().Add(s.cfg.ConnectionTimeout))
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := ParseLine(line)
		if err != nil {
			s.send(int(reply.CodeSyntaxError), err.Error())
			continue
		}

		if _, isData := cmd.(command.Data); isData {
			if s.runData(ctx) {
				return
			}
			continue
		}

		res, err := s.disp.Dispatch(ctx, cmd)
		if err != nil {
			// Cancellation: the caller abandoned the session.
			s.send(421, "service shutting down")
			return
		}

		s.send(int(reply.For(res)), reply.Text(res))
		if res.Verb == command.VerbQuit && res.Succeeded() {
			return
		}
	}
}

// runData handles the two-phase DATA exchange: 354, dot-terminated body,
// then the actual command execution. Returns true when the connection
// must close.
func (s *Session) runData(ctx context.Context) bool {
	// Sequence errors surface before the client wastes a body upload.
	tx := s.state.Transaction()
	if tx == nil || len(tx.To) == 0 {
		res, err := s.disp.Dispatch(ctx, command.Data{})
		if err != nil {
			s.send(421, "service shutting down")
			return true
		}
		s.send(int(reply.For(res)), reply.Text(res))
		return false
	}

	s.send(int(reply.CodeStartMailInput), "Start mail input; end with <CRLF>.<CRLF>")

	body, err := s.readBody()
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			s.send(codeExceededStorage, "message too large")
			return false
		}
		return true
	}

	res, err := s.disp.Dispatch(ctx, command.Data{Body: body})
	if err != nil {
		s.send(421, "service shutting down")
		return true
	}

	if res.Succeeded() {
		s.logger.Info("message stored",
			slog.String("id", res.Stored.ID.String()),
			slog.String("from", res.Stored.From.String()),
			slog.Int("recipients", len(res.Stored.To)),
			slog.Int("bytes", len(res.Stored.Data)),
		)
	}
	s.send(int(reply.For(res)), reply.Text(res))
	return false
}

var errBodyTooLarge = errors.New("message body exceeds size limit")

// readBody consumes dot-stuffed body lines until the <CRLF>.<CRLF>
// terminator, enforcing the configured size cap.
func (s *Session) readBody() (string, error) {
	var b strings.Builder

	for {
		s.conn.SetDeadline(time.Now().Add(s.cfg.ConnectionTimeout))
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return "", err
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		// Dot-stuffing, RFC 5321 section 4.5.2.
		trimmed = strings.TrimPrefix(trimmed, ".")

		if b.Len() > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(trimmed)

		if int64(b.Len()) > s.cfg.MaxMessageSize {
			// Drain until the terminator so the reply lands in order.
			for {
				rest, err := s.reader.ReadString('\n')
				if err != nil || strings.TrimRight(rest, "\r\n") == "." {
					break
				}
			}
			return "", errBodyTooLarge
		}
	}

	return b.String(), nil
}

// send writes one reply line and flushes.
func (s *Session) send(code int, text string) {
	fmt.Fprintf(s.writer, "%d %s\r\n", code, text)
	s.writer.Flush()
}
