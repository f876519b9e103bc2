package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

// HealthCheckPath is the liveness route served next to the webhook route.
const HealthCheckPath = "/health-check"

// Server wraps HTTP server with health and readiness checks.
type Server struct {
	server *http.Server
	router *mux.Router
	ready  atomic.Bool
	log    *slog.Logger
}

// New creates a new HTTP server.
func New(addr string, log *slog.Logger) *Server {
	router := mux.NewRouter()
	s := &Server{
		router: router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
	s.registerHealth()
	return s
}

// Handle registers a handler for the given method and path.
func (s *Server) Handle(method, path string, handler http.Handler) {
	s.router.Handle(path, handler).Methods(method)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady updates readiness state.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// OnShutdown registers f to run once Shutdown has closed the listeners.
func (s *Server) OnShutdown(f func()) {
	s.server.RegisterOnShutdown(f)
}

// Serve accepts connections on ln until Shutdown is called.
// A graceful shutdown is not reported as an error.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("HTTP server listening", "addr", ln.Addr().String())
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	return s.server.Shutdown(ctx)
}

func (s *Server) registerHealth() {
	s.router.HandleFunc(HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
