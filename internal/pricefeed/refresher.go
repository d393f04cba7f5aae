// Package pricefeed is the pricing collaborator: it polls a quote source on
// an interval and pushes the results into the asset catalog (and, when redis
// is configured, the shared price cache). The ledger core itself never talks
// to a feed; it only reads whatever the catalog currently holds.
package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/coinledger/internal/catalog"
	"github.com/alanyoungcy/coinledger/internal/domain"
)

// Refresher periodically fetches quotes and applies them to the catalog.
type Refresher struct {
	source   Source
	catalog  *catalog.Catalog
	cache    domain.PriceCache // optional
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a Refresher. cache may be nil when no redis is
// configured.
func NewRefresher(src Source, cat *catalog.Catalog, cache domain.PriceCache, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{
		source:   src,
		catalog:  cat,
		cache:    cache,
		interval: interval,
		logger:   logger.With(slog.String("component", "pricefeed")),
	}
}

// Run refreshes once immediately, then on every tick until the context is
// cancelled. Individual refresh failures are logged and retried on the next
// tick rather than stopping the loop.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.refresh(ctx); err != nil {
		r.logger.WarnContext(ctx, "initial price refresh failed",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				r.logger.WarnContext(ctx, "price refresh failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// refresh fetches quotes once and applies them. Quotes for assets outside
// the catalog are ignored.
func (r *Refresher) refresh(ctx context.Context) error {
	quotes, err := r.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("pricefeed: fetch: %w", err)
	}

	now := time.Now().UTC()
	updated := 0
	for assetID, price := range quotes {
		if err := r.catalog.SetPrice(assetID, price); err != nil {
			continue
		}
		updated++

		if r.cache != nil {
			if err := r.cache.SetPrice(ctx, assetID, price, now); err != nil {
				r.logger.WarnContext(ctx, "price cache write failed",
					slog.String("asset_id", assetID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	r.logger.DebugContext(ctx, "prices refreshed", slog.Int("updated", updated))
	return nil
}

// Seed pulls the most recent shared quotes out of the cache into the catalog.
// Called once at startup so a restarted instance does not serve stale
// configured prices until the first refresh.
func (r *Refresher) Seed(ctx context.Context) {
	if r.cache == nil {
		return
	}

	prices, err := r.cache.GetPrices(ctx, r.catalog.IDs())
	if err != nil {
		r.logger.WarnContext(ctx, "price cache seed failed",
			slog.String("error", err.Error()),
		)
		return
	}
	for assetID, price := range prices {
		_ = r.catalog.SetPrice(assetID, price)
	}
}
