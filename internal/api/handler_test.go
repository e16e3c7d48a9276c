package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lawnchairsociety/DevSmtp/internal/health"
	"github.com/lawnchairsociety/DevSmtp/internal/mail"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// runningSMTP satisfies the health probe without a real SMTP server.
type runningSMTP struct{}

func (runningSMTP) IsRunning() bool          { return true }
func (runningSMTP) ActiveConnections() int64 { return 0 }

func newTestServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(NewRouter(NewHandler(st, logger), health.NewHandler(nil, runningSMTP{})))
	t.Cleanup(ts.Close)
	return ts
}

func seed(t *testing.T, st *store.MemoryStore, id, from string, to ...string) *mail.Message {
	t.Helper()
	msg := &mail.Message{
		ID:         mail.MustMessageID(id),
		From:       mail.MustEmail(from),
		Data:       "Subject: test\r\n\r\nbody of " + id,
		ReceivedAt: time.Now().UTC(),
	}
	for _, addr := range to {
		msg.To = append(msg.To, mail.MustEmail(addr))
	}
	if err := st.Store(context.Background(), msg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return msg
}

func get(t *testing.T, url string, wantStatus int, into any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, wantStatus, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode response failed: %v", err)
		}
	}
}

type messagesPayload struct {
	Messages []json.RawMessage `json:"messages"`
	Count    int               `json:"count"`
}

func TestListMessages(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, "first", "alice@example.com", "bob@example.com")
	seed(t, st, "second", "carol@example.com", "bob@example.com")
	ts := newTestServer(t, st)

	var payload messagesPayload
	get(t, ts.URL+"/api/v1/messages", http.StatusOK, &payload)

	if payload.Count != 2 || len(payload.Messages) != 2 {
		t.Fatalf("count = %d, messages = %d, want 2", payload.Count, len(payload.Messages))
	}
}

func TestListMessages_EmptyMailbox(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	var payload messagesPayload
	get(t, ts.URL+"/api/v1/messages", http.StatusOK, &payload)

	if payload.Count != 0 {
		t.Errorf("count = %d", payload.Count)
	}
	// The collection renders as [], never null.
	if payload.Messages == nil {
		t.Error("messages must be an empty array, not null")
	}
}

func TestGetMessageByID(t *testing.T) {
	st := store.NewMemoryStore()
	msg := seed(t, st, "wanted", "alice@example.com", "bob@example.com")
	ts := newTestServer(t, st)

	var got struct {
		ID   string `json:"id"`
		From string `json:"from"`
	}
	get(t, ts.URL+"/api/v1/messages/wanted", http.StatusOK, &got)

	if got.ID != msg.ID.String() {
		t.Errorf("id = %q", got.ID)
	}
	if got.From != "alice@example.com" {
		t.Errorf("from = %q", got.From)
	}
}

func TestGetMessageByID_NotFound(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())
	get(t, ts.URL+"/api/v1/messages/absent", http.StatusNotFound, nil)
}

func TestSearchMessages(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, "first", "alice@example.com", "bob@example.com")
	seed(t, st, "second", "carol@example.com", "dave@example.com")
	ts := newTestServer(t, st)

	var payload messagesPayload
	get(t, ts.URL+"/api/v1/messages/search?email=bob@example.com", http.StatusOK, &payload)
	if payload.Count != 1 {
		t.Fatalf("count = %d, want 1", payload.Count)
	}

	// Sender matches too.
	get(t, ts.URL+"/api/v1/messages/search?email=carol@example.com", http.StatusOK, &payload)
	if payload.Count != 1 {
		t.Fatalf("sender search count = %d, want 1", payload.Count)
	}

	// No involvement: empty result, still 200.
	get(t, ts.URL+"/api/v1/messages/search?email=stranger@example.com", http.StatusOK, &payload)
	if payload.Count != 0 || payload.Messages == nil {
		t.Fatalf("stranger search: count = %d", payload.Count)
	}
}

func TestSearchMessages_BadRequests(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	get(t, ts.URL+"/api/v1/messages/search", http.StatusBadRequest, nil)
	get(t, ts.URL+"/api/v1/messages/search?email=not-an-address", http.StatusBadRequest, nil)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	var hres struct {
		Status   string `json:"status"`
		Services map[string]struct {
			Status string `json:"status"`
		} `json:"services"`
	}
	get(t, ts.URL+"/healthz", http.StatusOK, &hres)
	if hres.Status != "healthy" {
		t.Errorf("status = %q", hres.Status)
	}
	if hres.Services["store"].Status != "up" || hres.Services["smtp"].Status != "up" {
		t.Errorf("services = %+v", hres.Services)
	}

	get(t, ts.URL+"/livez", http.StatusOK, nil)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Error("metrics endpoint returned no exposition data")
	}
}
