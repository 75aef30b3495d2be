// Package http serves the AgroSmart prediction API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server owns the listener-facing http.Server for the API.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig mirrors the http section of the service config.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	// RateLimit is requests per minute per client IP; zero disables limiting.
	RateLimit    int
	MaxBodyBytes int64
}

// DefaultServerConfig matches config.Default.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:    8000,
		Timeout: 30 * time.Second,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:3000",
		},
		RateLimit:    120,
		MaxBodyBytes: 1 << 20,
	}
}

// NewRouter builds the full handler tree: middleware, API routes and /metrics.
func NewRouter(config ServerConfig, h *Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// The recovery middleware runs first so it sees panics from everything below.
	chain := []Middleware{
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RateLimitMiddleware(config.RateLimit),
	}
	if config.MaxBodyBytes > 0 {
		chain = append(chain, RequestSizeMiddleware(config.MaxBodyBytes))
	}
	chain = append(chain, GzipMiddleware)
	r.Use(Chain(chain...))

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if config.Timeout > 0 {
			r.Use(TimeoutMiddleware(config.Timeout))
		}
		RegisterHandlers(r, h)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, errorTypeNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, errorTypeMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// NewServer wires h behind NewRouter. WriteTimeout leaves headroom over the
// handler timeout so the timeout body can still be written.
func NewServer(config ServerConfig, h *Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	writeTimeout := config.Timeout
	if writeTimeout > 0 {
		writeTimeout += 5 * time.Second
	}
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           NewRouter(config, h, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       config.Timeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Serve blocks serving on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr is the configured listen address, ":<port>".
func (s *Server) Addr() string {
	return s.server.Addr
}
