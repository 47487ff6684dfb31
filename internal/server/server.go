package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/regexvault/regexvault/internal/cache"
	"github.com/regexvault/regexvault/internal/config"
	"github.com/regexvault/regexvault/internal/events"
	"github.com/regexvault/regexvault/internal/logger"
)

const serviceVersion = "0.1.0"

// Server is the HTTP front end over the detection engine.
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	service  *Service
	router   *mux.Router
	server   *http.Server
	hub      *events.Hub
	cache    *cache.ResultCache
	metrics  *Metrics
	limiters *ipLimiters
}

// New creates the server, loading the pattern registry and connecting the
// optional result cache.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	service, err := NewService(cfg, log.WithComponent("registry"))
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern registry: %w", err)
	}

	s := &Server{
		config:  cfg,
		logger:  log.WithComponent("server"),
		service: service,
		router:  mux.NewRouter(),
		metrics: NewMetrics("regexvault", nil),
	}

	if cfg.WebSocket.Enabled {
		s.hub = events.NewHub(events.Config{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			MaxMessageSize:  cfg.WebSocket.MaxMessageSize,
		}, log.WithComponent("events").Logger)
	}

	if cfg.Cache.Enabled {
		resultCache, err := cache.NewResultCache(&cache.Config{
			RedisURL:       cfg.Cache.RedisURL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
		}, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize result cache: %w", err)
		}
		s.cache = resultCache
	}

	if cfg.Server.RateLimit.Enabled {
		s.limiters = newIPLimiters(cfg.Server.RateLimit)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", MetricsHandler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	}

	api := s.router.NewRoute().Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/find", s.handleFind).Methods("POST")
	api.HandleFunc("/validate", s.handleValidate).Methods("POST")
	api.HandleFunc("/redact", s.handleRedact).Methods("POST")
	api.HandleFunc("/reload", s.handleReload).Methods("POST")
}

// Service exposes the registry service for reload drivers (file watcher,
// signal handlers).
func (s *Server) Service() *Service {
	return s.service
}

// Hub exposes the event hub, or nil when the stream is disabled.
func (s *Server) Hub() *events.Hub {
	return s.hub
}

// Start starts the HTTP server and, when enabled, the event hub.
func (s *Server) Start() error {
	s.logger.Info("Starting regexvault server",
		zap.String("addr", s.server.Addr),
		zap.Int("patterns", s.service.Engine().Registry().Len()),
	)

	if s.hub != nil {
		go s.hub.Run()
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping regexvault server")
	if s.hub != nil {
		s.hub.Stop()
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	return s.server.Shutdown(ctx)
}

// handleWebSocket hands the connection to the event hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}
