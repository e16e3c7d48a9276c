package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
	"github.com/lawnchairsociety/DevSmtp/internal/metrics"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// GetMessages asks for all persisted messages in store order.
type GetMessages struct{}

// GetMessagesResult carries the messages, or the query error.
type GetMessagesResult struct {
	Messages []*mail.Message
	Err      *Error
}

// Succeeded reports whether the query completed without error.
func (r GetMessagesResult) Succeeded() bool { return r.Err == nil }

// GetMessagesHandler serves GetMessages against the store.
type GetMessagesHandler struct {
	store store.Store
}

func NewGetMessagesHandler(st store.Store) *GetMessagesHandler {
	return &GetMessagesHandler{store: st}
}

func (h *GetMessagesHandler) Execute(ctx context.Context, q GetMessages) (GetMessagesResult, error) {
	if err := ctx.Err(); err != nil {
		return GetMessagesResult{}, err
	}

	msgs, err := h.store.Get(ctx)
	if err != nil {
		if cancelled(ctx, err) {
			return GetMessagesResult{}, err
		}
		metrics.QueriesTotal.WithLabelValues(string(OpGetMessages), "error").Inc()
		return GetMessagesResult{Err: &Error{
			Op:      OpGetMessages,
			Message: "failed to get messages",
			Cause:   err,
		}}, nil
	}

	metrics.QueriesTotal.WithLabelValues(string(OpGetMessages), "ok").Inc()
	return GetMessagesResult{Messages: msgs}, nil
}

// FindMessageByID asks for the message with one identifier.
type FindMessageByID struct {
	ID mail.MessageID
}

// FindMessageByIDResult carries the message (nil when absent — absence
// is not an error), or the query error.
type FindMessageByIDResult struct {
	Message *mail.Message
	Err     *Error
}

// Succeeded reports whether the query completed without error.
func (r FindMessageByIDResult) Succeeded() bool { return r.Err == nil }

// FindMessageByIDHandler serves FindMessageByID against the store.
type FindMessageByIDHandler struct {
	store store.Store
}

func NewFindMessageByIDHandler(st store.Store) *FindMessageByIDHandler {
	return &FindMessageByIDHandler{store: st}
}

func (h *FindMessageByIDHandler) Execute(ctx context.Context, q FindMessageByID) (FindMessageByIDResult, error) {
	if err := ctx.Err(); err != nil {
		return FindMessageByIDResult{}, err
	}

	msg, err := h.store.FindByID(ctx, q.ID)
	if err != nil {
		if cancelled(ctx, err) {
			return FindMessageByIDResult{}, err
		}
		metrics.QueriesTotal.WithLabelValues(string(OpFindMessageByID), "error").Inc()
		return FindMessageByIDResult{Err: &Error{
			Op:      OpFindMessageByID,
			Message: fmt.Sprintf("failed to find message by %q", q.ID),
			Cause:   err,
		}}, nil
	}

	metrics.QueriesTotal.WithLabelValues(string(OpFindMessageByID), "ok").Inc()
	return FindMessageByIDResult{Message: msg}, nil
}

// FindMessagesByEmail asks for all messages where the address appears
// as sender or recipient.
type FindMessagesByEmail struct {
	Email mail.Email
}

// FindMessagesByEmailResult carries the matching messages, or the
// query error.
type FindMessagesByEmailResult struct {
	Messages []*mail.Message
	Err      *Error
}

// Succeeded reports whether the query completed without error.
func (r FindMessagesByEmailResult) Succeeded() bool { return r.Err == nil }

// FindMessagesByEmailHandler serves FindMessagesByEmail against the store.
type FindMessagesByEmailHandler struct {
	store store.Store
}

func NewFindMessagesByEmailHandler(st store.Store) *FindMessagesByEmailHandler {
	return &FindMessagesByEmailHandler{store: st}
}

func (h *FindMessagesByEmailHandler) Execute(ctx context.Context, q FindMessagesByEmail) (FindMessagesByEmailResult, error) {
	if err := ctx.Err(); err != nil {
		return FindMessagesByEmailResult{}, err
	}

	msgs, err := h.store.FindByEmail(ctx, q.Email)
	if err != nil {
		if cancelled(ctx, err) {
			return FindMessagesByEmailResult{}, err
		}
		metrics.QueriesTotal.WithLabelValues(string(OpFindMessagesByEmail), "error").Inc()
		return FindMessagesByEmailResult{Err: &Error{
			Op:      OpFindMessagesByEmail,
			Message: fmt.Sprintf("failed to find messages by %q", q.Email),
			Cause:   err,
		}}, nil
	}

	metrics.QueriesTotal.WithLabelValues(string(OpFindMessagesByEmail), "ok").Inc()
	return FindMessagesByEmailResult{Messages: msgs}, nil
}

// cancelled reports whether err is the caller's cancellation signal
// surfacing through the store rather than a store failure.
func cancelled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
