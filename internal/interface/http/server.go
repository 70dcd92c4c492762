// Package http implements the REST API of the scrim lineup service: player
// and match ingestion, score cards, lineup recommendation, composition
// search and saved lineups.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/application/command"
	"github.com/scrimhub/scrim-lineup/internal/application/query"
	"github.com/scrimhub/scrim-lineup/internal/interface/http/handlers"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxHeaderBytes int
	// MaxBodyBytes caps API request bodies; non-positive means 1 MiB.
	MaxBodyBytes int64

	EnableCORS     bool
	AllowedOrigins []string // "*" allows any origin

	// RateLimitPerMinute is per client IP; 0 disables limiting.
	RateLimitPerMinute int

	APIKeyHeader string
	// APIKeyHashes are bcrypt hashes of accepted keys; empty disables auth.
	APIKeyHashes []string

	// Version is reported by /health and in response meta.
	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20,
		MaxBodyBytes:       1 << 20,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 120,
		APIKeyHeader:       handlers.DefaultAPIKeyHeader,
		Version:            "v1",
	}
}

// Address is host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies are the application handlers the routes delegate to.
type Dependencies struct {
	RegisterPlayer *command.RegisterPlayerHandler
	RecordMatch    *command.RecordMatchHandler
	SaveLineup     *command.SavedLineupHandler

	GetPlayer       *query.GetPlayerHandler
	PlayerScores    *query.PlayerScoresHandler
	RecommendLineup *query.RecommendLineupHandler
	Compositions    *query.CompositionHandler
	SavedLineups    *query.SavedLineupsHandler

	Logger        *logger.Logger
	HealthChecker handlers.HealthChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server owns the router, middleware and the listening http.Server.
type Server struct {
	config  Config
	deps    Dependencies
	router  *http.ServeMux
	logger  *logger.Logger
	auth    *handlers.APIKeyAuth
	limiter *rateLimiter
	srv     *http.Server

	mu        sync.Mutex
	startedAt time.Time // zero while not serving
}

// NewServer wires routes and middleware. It does not listen until Start.
func NewServer(config Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: log.With(logger.Component("http")),
		auth:   handlers.NewAPIKeyAuth(config.APIKeyHeader, config.APIKeyHashes),
	}
	if config.RateLimitPerMinute > 0 {
		s.limiter = newRateLimiter(config.RateLimitPerMinute, time.Minute)
	}
	s.routes()

	s.srv = &http.Server{
		Addr:           config.Address(),
		Handler:        s.middleware(s.router),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

// Handler returns the router wrapped in the full middleware chain.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) routes() {
	// Probes skip auth and body limits.
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)

	// ─── Catalog & players ───
	s.api("GET /api/v1/compositions", s.handleListCompositions)
	s.api("POST /api/v1/players", s.handleRegisterPlayer)
	s.api("GET /api/v1/players/{id}", s.handleGetPlayer)
	s.api("POST /api/v1/players/{id}/matches", s.handleRecordMatch)
	s.api("GET /api/v1/players/{id}/scores", s.handleGetPlayerScores)

	// ─── Lineups ───
	s.api("POST /api/v1/lineups/recommend", s.handleRecommendLineup)
	s.api("POST /api/v1/lineups/composition", s.handleBuildComposition)
	s.api("POST /api/v1/lineups/compositions/rank", s.handleRankCompositions)
	s.api("GET /api/v1/lineups/saved", s.handleListSavedLineups)
	s.api("GET /api/v1/lineups/saved/{name}", s.handleGetSavedLineup)
	s.api("PUT /api/v1/lineups/saved/{name}", s.handleSaveLineup)
	s.api("DELETE /api/v1/lineups/saved/{name}", s.handleDeleteSavedLineup)
}

// api registers an authenticated, body-limited API route.
func (s *Server) api(pattern string, h http.HandlerFunc) {
	limit := s.config.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	s.router.Handle(pattern, handlers.Chain(
		handlers.SecurityHeadersMiddleware,
		handlers.RequestSizeLimitMiddleware(limit),
		s.auth.Middleware,
	)(h))
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

var errAlreadyRunning = errors.New("http server already running")

// Start listens and blocks until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.mu.Lock()
	if !s.startedAt.IsZero() {
		s.mu.Unlock()
		return errAlreadyRunning
	}
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter sweep.
// It is safe to call on a server that never started.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.mu.Lock()
	running := !s.startedAt.IsZero()
	s.startedAt = time.Time{}
	s.mu.Unlock()
	if !running {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}

// Uptime is the time since Start, or 0 when not serving.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}
