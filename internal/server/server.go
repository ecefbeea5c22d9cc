// Package server exposes the market over HTTP and WebSocket for game
// servers and operator tooling.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/server/handler"
	"github.com/MSCMDD/ServerMarket/internal/server/middleware"
	"github.com/MSCMDD/ServerMarket/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per window per client IP; 0 disables
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Markets  *handler.MarketHandler
	Listings *handler.ListingHandler
	Audit    *handler.AuditHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in the middleware
// chain. limiter and wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers, wsHub)

	var h http.Handler = mux
	h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func registerRoutes(mux *http.ServeMux, handlers Handlers, wsHub *ws.Hub) {
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{market}", handlers.Markets.GetMarket)
	mux.HandleFunc("POST /api/markets/{market}/sell", handlers.Listings.Sell)
	mux.HandleFunc("POST /api/commands/{command}/sell", handlers.Listings.SellByCommand)

	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.ListRecent)
	}
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
