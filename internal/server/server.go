// Package server hosts the reference remote opponent and a WebSocket gateway
// that gives every client its own game session.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/mode"
	"github.com/lox/fivehands/internal/remote"
	"github.com/lox/fivehands/internal/session"
)

const shutdownTimeout = 5 * time.Second

// SessionFactory creates the session owned by a new WebSocket connection
type SessionFactory func() (*session.Session, error)

// NewSessionFactory returns a factory whose sessions evaluate through svc.
// Each session gets its own mode switch, starting from svc's current mode and
// never persisted, so one client toggling cannot change another's opponent.
// opts supplies the remaining session settings.
func NewSessionFactory(svc *evaluation.Service, opts session.Options) SessionFactory {
	return func() (*session.Session, error) {
		sw := mode.NewSwitch(svc.Mode().IsRemote(), nil)
		o := opts
		o.Evaluator = svc.WithMode(sw)
		o.Mode = sw
		return session.New(o)
	}
}

// Server represents the HTTP and WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	opponent    *Opponent
	newSession  SessionFactory
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
}

// NewServer creates a server. Either opponent or newSession may be nil, which
// leaves the matching endpoints unregistered.
func NewServer(addr string, opponent *Opponent, newSession SessionFactory, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// browser clients are served from anywhere
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		opponent:    opponent,
		newSession:  newSession,
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
	}
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.opponent != nil {
		mux.HandleFunc(remote.PlayPath, s.opponent.handlePlay)
		mux.HandleFunc(remote.RankingPath, s.opponent.handleRanking)
	}
	if s.newSession != nil {
		mux.HandleFunc("/ws", s.handleWebSocket)
	}
	return mux
}

// Start listens on the configured address and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully and
// closes every WebSocket connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server")

		s.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Stop closes all WebSocket connections
func (s *Server) Stop() {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// ConnectionCount returns the number of open WebSocket connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// handleWebSocket upgrades the request and attaches a fresh session
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, err := s.newSession()
	if err != nil {
		s.logger.Error("Failed to create session", "error", err)
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		sess.Close()
		return
	}

	client := NewConnection(conn, sess, s.logger)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		client.release()
		s.unregister(client)
	}()
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "session", conn.session.ID(), "total", total)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "session", conn.session.ID(), "total", total)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
