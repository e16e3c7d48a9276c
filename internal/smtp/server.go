package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lawnchairsociety/DevSmtp/internal/metrics"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// Config holds the SMTP transport configuration.
type Config struct {
	Addr              string
	Hostname          string
	MaxConnections    int
	ConnectionTimeout time.Duration
	MaxMessageSize    int64
}

// DefaultConfig returns development-friendly transport settings.
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":1025",
		Hostname:          "localhost",
		MaxConnections:    100,
		ConnectionTimeout: 5 * time.Minute,
		MaxMessageSize:    25 * 1024 * 1024,
	}
}

// Server accepts SMTP connections and runs one Session per client.
type Server struct {
	cfg    *Config
	store  store.Store
	logger *slog.Logger

	listener    net.Listener
	running     atomic.Bool
	activeConns int64
	wg          sync.WaitGroup
	cancel      context.CancelFunc
}

// NewServer builds a server over the given store.
func NewServer(cfg *Config, st store.Store, logger *slog.Logger) *Server {
	return &Server{cfg: cfg, store: st, logger: logger}
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	s.running.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info("smtp server listening", slog.String("addr", listener.Addr().String()))
	go s.acceptLoop(ctx)
	return nil
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// ActiveConnections returns the number of in-flight sessions.
func (s *Server) ActiveConnections() int64 {
	return atomic.LoadInt64(&s.activeConns)
}

// Addr returns the bound listener address, useful when Addr was ":0".
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight sessions.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)
	s.cancel()
	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("smtp server stopped")
	case <-time.After(30 * time.Second):
		s.logger.Warn("smtp server shutdown timed out")
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.logger.Error("accept failed", slog.String("error", err.Error()))
			}
			continue
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	s.wg.Add(1)
	defer s.wg.Done()

	if atomic.AddInt64(&s.activeConns, 1) > int64(s.cfg.MaxConnections) {
		atomic.AddInt64(&s.activeConns, -1)
		fmt.Fprintf(conn, "421 too many connections\r\n")
		conn.Close()
		return
	}
	defer atomic.AddInt64(&s.activeConns, -1)

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	s.logger.Debug("connection accepted", slog.String("remote", conn.RemoteAddr().String()))
	NewSession(conn, s.cfg, s.store, s.logger).Run(ctx)
}
