package smtp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.ConnectionTimeout = 5 * time.Second
	return cfg
}

// client drives the test side of a piped session.
type client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startSession(t *testing.T, cfg *Config, st store.Store) (*client, func()) {
	t.Helper()
	serverSide, clientSide := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewSession(serverSide, cfg, st, testLogger()).Run(ctx)
	}()

	c := &client{t: t, conn: clientSide, reader: bufio.NewReader(clientSide)}
	cleanup := func() {
		cancel()
		clientSide.Close()
		<-done
	}
	return c, cleanup
}

func (c *client) send(line string) {
	c.t.Helper()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
		c.t.Fatalf("write %q failed: %v", line, err)
	}
}

// expect reads one reply line and checks its code.
func (c *client) expect(code int) string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read reply failed: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, fmt.Sprintf("%d ", code)) {
		c.t.Fatalf("reply = %q, want code %d", line, code)
	}
	return line
}

func TestSession_FullExchange(t *testing.T) {
	st := store.NewMemoryStore()
	c, cleanup := startSession(t, testConfig(), st)
	defer cleanup()

	c.expect(220)
	c.send("HELO client.example.com")
	c.expect(250)
	c.send("MAIL FROM:<alice@example.com>")
	c.expect(250)
	c.send("RCPT TO:<bob@example.com>")
	c.expect(250)
	c.send("DATA")
	c.expect(354)
	c.send("Subject: greetings")
	c.send("")
	c.send("hello bob")
	c.send(".")
	reply := c.expect(250)
	if !strings.Contains(reply, "queued as") {
		t.Errorf("DATA reply = %q, want queue acknowledgment", reply)
	}
	c.send("QUIT")
	c.expect(221)

	if st.Len() != 1 {
		t.Fatalf("store holds %d messages, want 1", st.Len())
	}
	msgs, _ := st.Get(context.Background())
	want := "Subject: greetings\r\n\r\nhello bob"
	if msgs[0].Data != want {
		t.Errorf("stored body = %q, want %q", msgs[0].Data, want)
	}
}

func TestSession_ReplyCodes(t *testing.T) {
	c, cleanup := startSession(t, testConfig(), store.NewMemoryStore())
	defer cleanup()

	c.expect(220)

	// Out of sequence.
	c.send("MAIL FROM:<alice@example.com>")
	c.expect(503)
	c.send("DATA")
	c.expect(503)

	// Structural parse failure.
	c.send("MAIL alice@example.com")
	c.expect(501)

	// Bad address caught by the handler, same code.
	c.send("HELO client")
	c.expect(250)
	c.send("MAIL FROM:<garbage>")
	c.expect(501)

	// Legacy verbs.
	c.send("HELP")
	c.expect(214)
	c.send("VRFY <someone@example.com>")
	c.expect(502)
	c.send("TURN")
	c.expect(502)

	// Unknown verb.
	c.send("BDAT 10")
	c.expect(500)
}

func TestSession_DotStuffing(t *testing.T) {
	st := store.NewMemoryStore()
	c, cleanup := startSession(t, testConfig(), st)
	defer cleanup()

	c.expect(220)
	c.send("HELO client")
	c.expect(250)
	c.send("MAIL FROM:<alice@example.com>")
	c.expect(250)
	c.send("RCPT TO:<bob@example.com>")
	c.expect(250)
	c.send("DATA")
	c.expect(354)
	c.send("..leading dot")
	c.send(".")
	c.expect(250)

	msgs, _ := st.Get(context.Background())
	if msgs[0].Data != ".leading dot" {
		t.Errorf("stored body = %q, dot-stuffing not undone", msgs[0].Data)
	}
}

func TestSession_RejectsOversizedBody(t *testing.T) {
	cfg := testConfig()
	cfg.MaxMessageSize = 32
	st := store.NewMemoryStore()
	c, cleanup := startSession(t, cfg, st)
	defer cleanup()

	c.expect(220)
	c.send("HELO client")
	c.expect(250)
	c.send("MAIL FROM:<alice@example.com>")
	c.expect(250)
	c.send("RCPT TO:<bob@example.com>")
	c.expect(250)
	c.send("DATA")
	c.expect(354)
	c.send(strings.Repeat("a", 64))
	c.send(".")
	c.expect(552)

	if st.Len() != 0 {
		t.Error("oversized message must not be stored")
	}

	// The session survives: the client can reset and continue.
	c.send("RSET")
	c.expect(250)
	c.send("NOOP")
	c.expect(250)
}

func TestSession_QuitClosesConnection(t *testing.T) {
	c, cleanup := startSession(t, testConfig(), store.NewMemoryStore())
	defer cleanup()

	c.expect(220)
	c.send("QUIT")
	c.expect(221)

	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.reader.ReadString('\n'); err == nil {
		t.Fatal("connection should be closed after QUIT")
	}
}

func TestSession_BlankLinesIgnored(t *testing.T) {
	c, cleanup := startSession(t, testConfig(), store.NewMemoryStore())
	defer cleanup()

	c.expect(220)
	c.send("")
	c.send("NOOP")
	c.expect(250)
}
