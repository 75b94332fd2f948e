package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-dev/ripple/pkg/ripple"
	"github.com/ripple-dev/ripple/pkg/snapshot"
)

const tracerName = "github.com/ripple-dev/ripple/pkg/server"

// Server hosts one reactive graph per WebSocket connection.
type Server struct {
	cfg     Config
	program Program

	router   chi.Router
	upgrader websocket.Upgrader

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	mu       sync.Mutex
	sessions map[string]*Session

	httpServer *http.Server
}

// New creates a server that runs program for every connected client.
func New(program Program, cfg Config) *Server {
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:      cfg,
		program:  program,
		logger:   cfg.Logger,
		metrics:  newMetrics(cfg.Registry),
		tracer:   otel.Tracer(tracerName),
		sessions: make(map[string]*Session),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if cfg.CheckOrigin != nil {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return cfg.CheckOrigin(r.Header.Get("Origin"))
		}
	}

	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r

	return s
}

// Handler returns the server's HTTP handler for embedding in a larger mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully:
// open sessions are closed (persisting their snapshots) before the listener
// stops.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown closes all sessions and stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	// Closing the connection unblocks each session loop; the loop's own
	// teardown saves the snapshot.
	for _, sess := range sessions {
		sess.conn.Close()
	}

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleWS upgrades the connection and runs the session loop on the
// handler's goroutine, which becomes the graph's confinement context.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sess, err := s.newSession(r.Context(), conn, r.URL.Query().Get("session"))
	if err != nil {
		s.logger.Error("session setup failed", "err", err)
		conn.Close()
		return
	}

	s.register(sess)
	defer s.unregister(sess)

	sess.run(r.Context())
	sess.close(context.Background())
}

// newSession builds a session, restoring a snapshot when the client asks to
// resume, and runs the program to establish the graph.
func (s *Server) newSession(ctx context.Context, conn wsConn, resumeID string) (*Session, error) {
	conn.SetReadLimit(s.cfg.ReadLimit)

	sess := &Session{
		conn:    conn,
		cells:   make(map[string]*ripple.Value[json.RawMessage]),
		logger:  s.logger,
		metrics: s.metrics,
		tracer:  s.tracer,
		store:   s.cfg.Store,
		ttl:     s.cfg.SessionTTL,
	}

	if resumeID != "" {
		if snap := s.loadSnapshot(ctx, resumeID); snap != nil {
			sess.id = resumeID
			sess.restored = snap.Cells
			sess.resumed = true
			s.metrics.resumesTotal.Inc()
		}
	}
	if sess.id == "" {
		sess.id = newSessionID()
	}

	opts := []ripple.Option{ripple.WithErrorReporter(sess.reportEngineError)}
	if s.cfg.MaxFlushPasses > 0 {
		opts = append(opts, ripple.WithMaxFlushPasses(s.cfg.MaxFlushPasses))
	}
	sess.graph = ripple.New(opts...)

	if err := s.program(sess); err != nil {
		return nil, err
	}
	if err := sess.sendHello(); err != nil {
		return nil, err
	}

	s.metrics.sessionsTotal.Inc()
	return sess, nil
}

// loadSnapshot returns the decoded snapshot for id, or nil when absent or
// unreadable. A broken snapshot downgrades to a fresh session rather than
// refusing the connection.
func (s *Server) loadSnapshot(ctx context.Context, id string) *snapshot.Snapshot {
	data, err := s.cfg.Store.Load(ctx, id)
	if err != nil {
		s.logger.Error("snapshot load failed", "session", id, "err", err)
		s.metrics.snapshotErrors.Inc()
		return nil
	}
	if data == nil {
		return nil
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		s.logger.Error("snapshot decode failed", "session", id, "err", err)
		s.metrics.snapshotErrors.Inc()
		return nil
	}
	return snap
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.metrics.activeSessions.Inc()
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.metrics.activeSessions.Dec()
}

// newSessionID returns a 128-bit random hex identifier.
func newSessionID() string {
	var buf [16]byte
	rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
