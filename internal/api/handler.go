// Package api exposes the captured mailbox over HTTP: list messages,
// fetch one by id, and search by address. It is a thin JSON adapter on
// top of the query handlers; all store access and error wrapping lives
// there.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
	"github.com/lawnchairsociety/DevSmtp/internal/query"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// Handler serves the message query endpoints.
type Handler struct {
	getMessages *query.GetMessagesHandler
	findByID    *query.FindMessageByIDHandler
	findByEmail *query.FindMessagesByEmailHandler
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewHandler builds the query handlers over st.
func NewHandler(st store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		getMessages: query.NewGetMessagesHandler(st),
		findByID:    query.NewFindMessageByIDHandler(st),
		findByEmail: query.NewFindMessagesByEmailHandler(st),
		validate:    validator.New(),
		logger:      logger,
	}
}

// messagesResponse is the JSON shape for message collections.
type messagesResponse struct {
	Messages []*mail.Message `json:"messages"`
	Count    int             `json:"count"`
}

// List handles GET /messages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.getMessages.Execute(r.Context(), query.GetMessages{})
	if err != nil {
		// Client went away; nothing to write.
		return
	}
	if !res.Succeeded() {
		h.fail(w, r, res.Err)
		return
	}
	h.respond(w, http.StatusOK, messagesResponse{Messages: orEmpty(res.Messages), Count: len(res.Messages)})
}

// GetByID handles GET /messages/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := mail.ParseMessageID(chi.URLParam(r, "id"))
	if err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid message id"})
		return
	}

	res, err := h.findByID.Execute(r.Context(), query.FindMessageByID{ID: id})
	if err != nil {
		return
	}
	if !res.Succeeded() {
		h.fail(w, r, res.Err)
		return
	}
	if res.Message == nil {
		h.respond(w, http.StatusNotFound, errorResponse{Error: "message not found"})
		return
	}
	h.respond(w, http.StatusOK, res.Message)
}

// searchRequest carries the search parameters.
type searchRequest struct {
	Email string `validate:"required,email"`
}

// Search handles GET /messages/search?email=addr.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{Email: r.URL.Query().Get("email")}
	if err := h.validate.Struct(req); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid email parameter"})
		return
	}

	addr, err := mail.ParseEmail(req.Email)
	if err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid email address"})
		return
	}

	res, err := h.findByEmail.Execute(r.Context(), query.FindMessagesByEmail{Email: addr})
	if err != nil {
		return
	}
	if !res.Succeeded() {
		h.fail(w, r, res.Err)
		return
	}
	h.respond(w, http.StatusOK, messagesResponse{Messages: orEmpty(res.Messages), Count: len(res.Messages)})
}

// errorResponse is the JSON shape for failures.
type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, qerr *query.Error) {
	h.logger.Error("query failed",
		slog.String("op", string(qerr.Op)),
		slog.String("path", r.URL.Path),
		slog.String("error", qerr.Error()),
	)
	h.respond(w, http.StatusInternalServerError, errorResponse{Error: qerr.Message})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("response write failed", slog.String("error", err.Error()))
	}
}

func orEmpty(msgs []*mail.Message) []*mail.Message {
	if msgs == nil {
		return []*mail.Message{}
	}
	return msgs
}
