package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// hostnamePattern accepts domain names and bracketed address literals.
var hostnamePattern = regexp.MustCompile(`^(?:[A-Za-z0-9][A-Za-z0-9.-]*|\[[0-9A-Fa-f.:]+\])$`)

// HeloHandler records the client identification and moves the session
// to the greeted state. HELO also discards any open transaction.
type HeloHandler struct {
	sess *Session
}

func NewHeloHandler(sess *Session) *HeloHandler {
	return &HeloHandler{sess: sess}
}

func (h *HeloHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	helo := cmd.(Helo)

	if !hostnamePattern.MatchString(helo.Hostname) {
		return fail(VerbHelo, KindSyntax,
			fmt.Sprintf("%q is not a valid hostname", helo.Hostname), nil), nil
	}

	h.sess.greet(helo.Hostname)
	return ok(VerbHelo), nil
}

// MailHandler opens a new mail transaction with a validated sender.
type MailHandler struct {
	sess *Session
}

func NewMailHandler(sess *Session) *MailHandler {
	return &MailHandler{sess: sess}
}

func (h *MailHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	m := cmd.(Mail)

	if !h.sess.greeted() {
		return fail(VerbMail, KindBadSequence, "send HELO first", nil), nil
	}
	if h.sess.Transaction() != nil {
		return fail(VerbMail, KindBadSequence, "transaction already open, send RSET first", nil), nil
	}

	from, err := mail.ParseEmail(m.From)
	if err != nil {
		return fail(VerbMail, KindSyntax, "invalid sender address", err), nil
	}

	h.sess.begin(from)
	return ok(VerbMail), nil
}

// RcptHandler appends a validated recipient to the open transaction.
type RcptHandler struct {
	sess *Session
}

func NewRcptHandler(sess *Session) *RcptHandler {
	return &RcptHandler{sess: sess}
}

func (h *RcptHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r := cmd.(Rcpt)

	if h.sess.Transaction() == nil {
		return fail(VerbRcpt, KindBadSequence, "send MAIL first", nil), nil
	}

	to, err := mail.ParseEmail(r.To)
	if err != nil {
		return fail(VerbRcpt, KindSyntax, "invalid recipient address", err), nil
	}

	h.sess.addRecipient(to)
	return ok(VerbRcpt), nil
}

// DataHandler finalizes the open transaction: it assembles the message,
// assigns a fresh identifier when none was supplied, persists it, and
// moves the session to the complete state. Session state only advances
// after the store write succeeds, so a failed DATA leaves the
// transaction intact for the client to retry or reset.
type DataHandler struct {
	sess  *Session
	store store.Store
}

func NewDataHandler(sess *Session, st store.Store) *DataHandler {
	return &DataHandler{sess: sess, store: st}
}

func (h *DataHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	d := cmd.(Data)

	tx := h.sess.Transaction()
	if tx == nil || len(tx.To) == 0 {
		return fail(VerbData, KindBadSequence, "no recipients, send RCPT first", nil), nil
	}

	id := mail.NewMessageID()
	if d.ID != "" {
		parsed, err := mail.ParseMessageID(d.ID)
		if err != nil {
			return fail(VerbData, KindSyntax, "invalid message id", err), nil
		}
		id = parsed
	}

	msg := &mail.Message{
		ID:         id,
		From:       tx.From,
		To:         append([]mail.Email(nil), tx.To...),
		Data:       d.Body,
		ReceivedAt: time.Now().UTC(),
	}

	if err := h.store.Store(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return fail(VerbData, KindStore, "failed to store message", err), nil
	}

	h.sess.complete()
	res := ok(VerbData)
	res.Text = fmt.Sprintf("OK queued as %s", id)
	res.Stored = msg
	return res, nil
}

// RsetHandler discards the open transaction. RSET always succeeds.
type RsetHandler struct {
	sess *Session
}

func NewRsetHandler(sess *Session) *RsetHandler {
	return &RsetHandler{sess: sess}
}

func (h *RsetHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	h.sess.reset()
	return ok(VerbRset), nil
}

// NoopHandler changes nothing and always succeeds.
type NoopHandler struct{}

func NewNoopHandler() *NoopHandler {
	return &NoopHandler{}
}

func (h *NoopHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ok(VerbNoop), nil
}

// QuitHandler signals session termination; the transport closes the
// connection after rendering the reply.
type QuitHandler struct{}

func NewQuitHandler() *QuitHandler {
	return &QuitHandler{}
}

func (h *QuitHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ok(VerbQuit), nil
}
