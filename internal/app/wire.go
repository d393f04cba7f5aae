package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/cache/redis"
	"github.com/alanyoungcy/coinledger/internal/catalog"
	"github.com/alanyoungcy/coinledger/internal/config"
	"github.com/alanyoungcy/coinledger/internal/domain"
	"github.com/alanyoungcy/coinledger/internal/ledger"
	"github.com/alanyoungcy/coinledger/internal/pricefeed"
	"github.com/alanyoungcy/coinledger/internal/server/handler"
	"github.com/alanyoungcy/coinledger/internal/store/memory"
	"github.com/alanyoungcy/coinledger/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application needs.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Catalog *catalog.Catalog

	// Stores
	Holdings     domain.HoldingStore
	Transactions domain.TransactionStore
	Trades       domain.TradeStore
	Users        domain.UserStore

	// Concurrency + caching
	Locker     domain.AccountLocker
	PriceCache domain.PriceCache // nil when redis is disabled

	// Sources
	PriceSource pricefeed.Source

	// Health probes for wired backends.
	HealthChecks []handler.HealthCheck
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Asset catalog (seeded from config) ---
	seed, prices, err := seedAssets(cfg.Assets)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.New(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: catalog: %w", err)
	}
	deps.Catalog = cat

	// --- Storage backend ---
	switch strings.ToLower(cfg.Storage) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		ledgerStore := postgres.NewLedgerStore(pgClient.Pool())
		deps.Holdings = ledgerStore
		deps.Transactions = ledgerStore
		deps.Trades = ledgerStore
		deps.Users = postgres.NewUserStore(pgClient.Pool())
		deps.HealthChecks = append(deps.HealthChecks, handler.HealthCheck{
			Name:  "postgres",
			Check: pgClient.Ping,
		})

	case "memory":
		ledgerStore := memory.NewLedgerStore()
		deps.Holdings = ledgerStore
		deps.Transactions = ledgerStore
		deps.Trades = ledgerStore
		deps.Users = memory.NewUserStore(ledgerStore)
		logger.InfoContext(ctx, "wire: using in-memory storage, data is not durable")

	default:
		return nil, nil, fmt.Errorf("wire: unsupported storage %q", cfg.Storage)
	}

	// --- Redis (optional: distributed account lock + shared price cache) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Locker = redis.NewAccountLocker(redisClient, cfg.Redis.LockTTL.Duration)
		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.HealthChecks = append(deps.HealthChecks, handler.HealthCheck{
			Name:  "redis",
			Check: redisClient.Ping,
		})
	} else {
		deps.Locker = ledger.NewKeyedLocker()
	}

	// --- Price source ---
	switch strings.ToLower(cfg.PriceFeed.Source) {
	case "randomwalk":
		deps.PriceSource = pricefeed.NewRandomWalkSource(prices, cfg.PriceFeed.MaxStepBps, time.Now().UnixNano())
	default:
		deps.PriceSource = pricefeed.NewStaticSource(prices)
	}

	return deps, cleanup, nil
}

// seedAssets converts configured assets into catalog entries plus the price
// table the feed source starts from.
func seedAssets(cfgAssets []config.AssetConfig) ([]domain.Asset, map[string]decimal.Decimal, error) {
	assets := make([]domain.Asset, 0, len(cfgAssets))
	prices := make(map[string]decimal.Decimal, len(cfgAssets))

	for _, a := range cfgAssets {
		price, err := decimal.NewFromString(a.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: asset %q price %q: %w", a.ID, a.Price, err)
		}
		assets = append(assets, domain.Asset{
			ID:     a.ID,
			Symbol: strings.ToUpper(a.Symbol),
			Name:   a.Name,
			Icon:   a.Icon,
			Price:  price,
		})
		prices[a.ID] = price
	}
	return assets, prices, nil
}
