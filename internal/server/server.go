package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/config"
	"github.com/jackzampolin/bookwatch/internal/home"
	"github.com/jackzampolin/bookwatch/internal/library"
	"github.com/jackzampolin/bookwatch/internal/server/endpoints"
	"github.com/jackzampolin/bookwatch/internal/svcctx"
)

// Server is the development translation backend. It serves an in-memory
// book library over the same HTTP API as the production backend.
type Server struct {
	httpServer *http.Server
	library    *library.Store
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 5000)
	Port string
	// SeedFile is a YAML seed of books and models (default: library.DemoSeed)
	SeedFile string
	// JobDelay is how long each simulated job takes (default: 2s)
	JobDelay time.Duration
	// MaxWorkers bounds simulated jobs running at once (default: 4)
	MaxWorkers int64
	// MaxUploadBytes bounds workflow uploads (default: 32MB)
	MaxUploadBytes int64
	// Home keeps uploaded originals when set
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration and loads its seed.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	store := library.New(library.Config{
		JobDelay:   cfg.JobDelay,
		MaxWorkers: cfg.MaxWorkers,
		Logger:     cfg.Logger,
	})

	var err error
	if cfg.SeedFile != "" {
		err = store.LoadSeedFile(cfg.SeedFile)
	} else {
		err = store.LoadSeed([]byte(library.DemoSeed))
	}
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed library: %w", err)
	}

	// If config manager provided, follow simulator.job_delay changes
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			if c.Simulator.JobDelay != store.JobDelay() {
				store.SetJobDelay(c.Simulator.JobDelay)
				cfg.Logger.Info("job delay reloaded from config", "job_delay", store.JobDelay())
			}
		})
	}

	s := &Server{
		library: store,
		logger:  cfg.Logger,
		services: &svcctx.Services{
			Library: store,
			Logger:  cfg.Logger,
			Home:    cfg.Home,
		},
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{MaxUploadBytes: cfg.MaxUploadBytes}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start serves until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr, "books", len(s.library.BookIDs()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown stops the HTTP server, then the library's running jobs.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.logger.Info("stopping simulated jobs")
	s.library.Close()

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Library returns the book store.
func (s *Server) Library() *library.Store {
	return s.library
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root handler, for serving without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Endpoints returns the endpoint registry.
func (s *Server) Endpoints() *api.Registry {
	return s.endpointRegistry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the library is available.
// Returns 503 Service Unavailable otherwise.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.library == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
