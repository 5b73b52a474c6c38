package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/jpalmerr/webping"
	"github.com/jpalmerr/webping/internal/feed"
)

const (
	// shutdownTimeout bounds graceful shutdown of in-flight control requests.
	shutdownTimeout = 5 * time.Second

	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// Must be <= shutdownTimeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second
)

// Controller is the part of [webping.Service] the control surface drives.
type Controller interface {
	Pause() error
	Resume() error
	Stop() error
	State() webping.State
}

// stateResponse is the JSON body returned by every endpoint.
type stateResponse struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Server exposes a small HTTP control surface for a running service.
//
// Endpoints:
//   - GET /api/state: current lifecycle state
//   - POST /api/pause: suspend cycling after the current cycle
//   - POST /api/resume: continue cycling
//   - POST /api/stop: stop the service
//   - GET /api/events: Server-Sent Events stream of probe outcomes, when a
//     feed is configured
//
// Transitions that are invalid in the current state answer 409 Conflict.
type Server struct {
	ctrl       Controller
	events     *feed.Feed
	addr       string
	httpServer *http.Server
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a control [Server] listening on addr once started.
// events may be nil, which disables the outcome stream.
func NewServer(ctrl Controller, events *feed.Feed, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ctrl:   ctrl,
		events: events,
		addr:   addr,
		logger: logger.With("component", "control"),
	}
}

// Handler returns the router serving the control endpoints.
func (s *Server) Handler() http.Handler {
	// routes live on the root router so a method mismatch answers 405
	r := mux.NewRouter()
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/pause", s.transition("pause", s.ctrl.Pause)).Methods(http.MethodPost)
	r.HandleFunc("/api/resume", s.transition("resume", s.ctrl.Resume)).Methods(http.MethodPost)
	r.HandleFunc("/api/stop", s.transition("stop", s.ctrl.Stop)).Methods(http.MethodPost)
	if s.events != nil {
		r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	}
	return r
}

// Start begins serving in a background goroutine.
//
// Start returns once the listener is bound. The server shuts down gracefully
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind control address %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so event streams end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.logger.Info("control server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("control server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, stateResponse{State: s.ctrl.State().String()})
}

// transition wraps a controller operation as a POST handler.
func (s *Server) transition(name string, op func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := op()
		if err != nil {
			code := statusFor(err)
			s.logger.Warn("control request rejected", "op", name, "remote", r.RemoteAddr, "error", err)
			s.writeJSON(w, code, stateResponse{State: s.ctrl.State().String(), Error: err.Error()})
			return
		}
		s.logger.Info("control request applied", "op", name, "remote", r.RemoteAddr)
		s.writeJSON(w, http.StatusOK, stateResponse{State: s.ctrl.State().String()})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, webping.ErrNotRunning),
		errors.Is(err, webping.ErrServiceStopped),
		errors.Is(err, webping.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, webping.ErrStopGraceExceeded):
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body stateResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode control response", "error", err)
	}
}

// handleEvents streams probe outcomes via Server-Sent Events.
//
// Write deadlines keep a slow or vanished client from pinning the handler,
// so it still notices context cancellation.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// may not be supported by some ResponseWriter implementations
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}
		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}
