package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/veristream/veristream/internal/interject"
	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/session"
)

// Server is the ingress for live transcripts: a JSON API for utterances
// and energy samples, plus a WebSocket feed that streams verification
// results back per session.
type Server struct {
	echo    *echo.Echo
	cfg     model.ServerConfig
	deps    session.Deps
	monitor *interject.EnergyMonitor
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session

	subMu sync.Mutex
	subs  map[string][]chan model.QueueEntry // sessionID -> subscriber channels
}

// New creates the server and registers its routes. The queue inside deps
// is tapped for result notifications.
func New(cfg model.ServerConfig, deps session.Deps, monitor *interject.EnergyMonitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		cfg:      cfg,
		deps:     deps,
		monitor:  monitor,
		logger:   logger,
		sessions: make(map[string]*session.Session),
		subs:     make(map[string][]chan model.QueueEntry),
	}

	deps.Queue.OnTransition(s.publish)

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/utterances", s.handleUtterance)
	e.POST("/v1/energy", s.handleEnergy)
	e.GET("/v1/sessions/:id/entries", s.handleEntries)
	e.GET("/v1/ws", s.handleWebSocket)

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// sessionByID returns the session, creating it when id is empty or new.
func (s *Server) sessionByID(id string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess
		}
	}

	sess := session.New(s.deps)
	s.sessions[sess.ID()] = sess
	return sess
}

// publish fans a queue transition out to the session's subscribers.
// Slow subscribers drop updates rather than stalling the pipeline.
func (s *Server) publish(entry model.QueueEntry) {
	s.subMu.Lock()
	channels := append([]chan model.QueueEntry(nil), s.subs[entry.SessionID]...)
	s.subMu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- entry:
		default:
		}
	}
}

func (s *Server) subscribe(sessionID string) chan model.QueueEntry {
	ch := make(chan model.QueueEntry, 64)
	s.subMu.Lock()
	s.subs[sessionID] = append(s.subs[sessionID], ch)
	s.subMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(sessionID string, ch chan model.QueueEntry) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	subs := s.subs[sessionID]
	for i, c := range subs {
		if c == ch {
			s.subs[sessionID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subs[sessionID]) == 0 {
		delete(s.subs, sessionID)
	}
}
