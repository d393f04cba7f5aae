// Package app provides top-level application lifecycle management for the
// coinledger service. It wires together stores, the catalog, the ledger
// processor, the price feed, and the HTTP server, and runs them until the
// context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/coinledger/internal/auth"
	"github.com/alanyoungcy/coinledger/internal/config"
	"github.com/alanyoungcy/coinledger/internal/ledger"
	"github.com/alanyoungcy/coinledger/internal/pricefeed"
	"github.com/alanyoungcy/coinledger/internal/server"
	"github.com/alanyoungcy/coinledger/internal/server/handler"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the price feed and the HTTP server, and
// blocks until the context is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("storage", a.cfg.Storage),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// Auth gateway.
	signer := auth.NewTokenSigner(a.cfg.Auth.TokenSecret, a.cfg.Auth.TokenTTL.Duration)
	gateway := auth.NewGateway(deps.Users, signer, a.logger)

	// Ledger core.
	balance := ledger.NewBalanceView(deps.Holdings, deps.Catalog)
	processor := ledger.NewProcessor(deps.Catalog, deps.Trades, deps.Locker, balance, a.logger)

	// Pricing collaborator.
	refresher := pricefeed.NewRefresher(
		deps.PriceSource, deps.Catalog, deps.PriceCache,
		a.cfg.PriceFeed.Interval.Duration, a.logger,
	)
	refresher.Seed(ctx)

	// HTTP surface.
	handlers := server.Handlers{
		Health:       handler.NewHealthHandler(a.logger, deps.HealthChecks...),
		Auth:         handler.NewAuthHandler(gateway, a.logger),
		Assets:       handler.NewAssetHandler(deps.Catalog),
		Wallet:       handler.NewWalletHandler(balance, a.logger),
		Transactions: handler.NewTransactionHandler(processor, deps.Transactions, a.logger),
	}
	srv := server.New(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, gateway, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return refresher.Run(ctx)
	})

	g.Go(func() error {
		return srv.Start()
	})

	// Shut the server down when the context ends so Start returns.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
