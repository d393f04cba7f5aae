// Package server exposes the ledger core over HTTP. Routing uses the stdlib
// mux with method patterns; middleware is a plain handler chain
// (auth per-route, then logging and CORS around everything).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/coinledger/internal/server/handler"
	"github.com/alanyoungcy/coinledger/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Assets       *handler.AssetHandler
	Wallet       *handler.WalletHandler
	Transactions *handler.TransactionHandler
}

// Server is the HTTP API server for the wallet ledger.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered. authn guards the routes
// that need a resolved user.
func New(cfg Config, handlers Handlers, authn middleware.Authenticator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	protected := middleware.Auth(authn)

	// Public routes.
	mux.HandleFunc("GET /api/health", handlers.Health.Health)
	mux.HandleFunc("POST /api/auth/register", handlers.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", handlers.Auth.Login)
	mux.HandleFunc("GET /api/assets", handlers.Assets.ListAssets)

	// Routes that require an authenticated user.
	mux.Handle("GET /api/auth/me", protected(http.HandlerFunc(handlers.Auth.Me)))
	mux.Handle("PUT /api/auth/update", protected(http.HandlerFunc(handlers.Auth.Update)))
	mux.Handle("DELETE /api/auth/delete", protected(http.HandlerFunc(handlers.Auth.Delete)))
	mux.Handle("GET /api/wallet", protected(http.HandlerFunc(handlers.Wallet.GetWallet)))
	mux.Handle("GET /api/wallet/balance", protected(http.HandlerFunc(handlers.Wallet.GetBalance)))
	mux.Handle("POST /api/transactions/buy", protected(http.HandlerFunc(handlers.Transactions.Buy)))
	mux.Handle("POST /api/transactions/sell", protected(http.HandlerFunc(handlers.Transactions.Sell)))
	mux.Handle("GET /api/transactions/history", protected(http.HandlerFunc(handlers.Transactions.History)))

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
