// Package health exposes liveness and readiness probes over HTTP so
// container orchestrators can tell a hung catcher from a busy one.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// StorePinger is implemented by store backends that can verify their
// connection. Backends without one (the in-memory store) are treated
// as always reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// SMTPStatus reports the SMTP server's accept loop state.
type SMTPStatus interface {
	IsRunning() bool
	ActiveConnections() int64
}

// ServiceStatus is the per-service fragment of a health response.
type ServiceStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the aggregate health check payload.
type Response struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services"`
}

// Handler serves the health endpoints.
type Handler struct {
	store   StorePinger
	smtp    SMTPStatus
	timeout time.Duration
}

// NewHandler builds a health handler. store may be nil when the
// configured backend has no connection to check.
func NewHandler(store StorePinger, smtp SMTPStatus) *Handler {
	return &Handler{store: store, smtp: smtp, timeout: 5 * time.Second}
}

// Health handles GET /healthz: storage and SMTP state in one response.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	services := map[string]ServiceStatus{
		"store": h.checkStore(ctx),
		"smtp":  h.checkSMTP(),
	}

	overall := "healthy"
	for _, svc := range services {
		if svc.Status != "up" {
			overall = "degraded"
		}
	}

	respond(w, overall == "healthy", Response{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	})
}

// Liveness handles GET /livez: the process is up and serving HTTP.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	respond(w, true, Response{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkStore(ctx context.Context) ServiceStatus {
	if h.store == nil {
		return ServiceStatus{Status: "up"}
	}

	start := time.Now()
	err := h.store.Ping(ctx)
	latency := time.Since(start).String()

	if err != nil {
		return ServiceStatus{Status: "down", Latency: latency, Error: err.Error()}
	}
	return ServiceStatus{Status: "up", Latency: latency}
}

func (h *Handler) checkSMTP() ServiceStatus {
	if h.smtp == nil || !h.smtp.IsRunning() {
		return ServiceStatus{Status: "down", Error: "smtp server is not running"}
	}
	return ServiceStatus{Status: "up"}
}

func respond(w http.ResponseWriter, healthy bool, body Response) {
	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(body)
}
