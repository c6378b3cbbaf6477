package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quantmesh/metaperception/internal/metrics"
)

// ServerConfig holds the read-only HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig binds to localhost only
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8087,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-only observation surface for the perception engine. It
// never mutates engine state; it serves the latest published cycle output.
type Server struct {
	router *mux.Router
	server *http.Server
	cache  *StateCache
	config ServerConfig
}

// NewServer wires routes for the latest snapshot/decision/delta, the regime
// view, health, and Prometheus metrics
func NewServer(config ServerConfig, cache *StateCache, reg *metrics.Registry) *Server {
	router := mux.NewRouter()

	h := &handlers{cache: cache, metrics: reg, started: time.Now()}
	router.HandleFunc("/health", h.health).Methods("GET")
	router.HandleFunc("/snapshot/latest", h.latestSnapshot).Methods("GET")
	router.HandleFunc("/decision/latest", h.latestDecision).Methods("GET")
	router.HandleFunc("/delta/latest", h.latestDelta).Methods("GET")
	router.HandleFunc("/regime", h.regime).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(reg.Prometheus(), promhttp.HandlerOpts{})).Methods("GET")

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	return &Server{
		router: router,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		cache:  cache,
		config: config,
	}
}

// Router exposes the mux for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("perception HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("perception HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
