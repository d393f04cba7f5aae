// Package catalog holds the in-memory registry of tradable assets and their
// current settlement-currency quotes. Reads are lock-cheap and side-effect
// free; only the pricing feed writes.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// Catalog is a read-mostly asset registry. List order is the order assets
// were registered in, which is stable for the life of the process.
type Catalog struct {
	mu     sync.RWMutex
	assets map[string]*domain.Asset
	order  []string
}

// New creates a Catalog seeded with the given assets, preserving their order.
// It rejects duplicate ids or symbols and negative prices.
func New(assets []domain.Asset) (*Catalog, error) {
	c := &Catalog{
		assets: make(map[string]*domain.Asset, len(assets)),
	}
	symbols := make(map[string]struct{}, len(assets))

	for _, a := range assets {
		if a.ID == "" {
			return nil, fmt.Errorf("catalog: asset with empty id")
		}
		a.Symbol = strings.ToUpper(a.Symbol)
		if _, dup := c.assets[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate asset id %q", a.ID)
		}
		if _, dup := symbols[a.Symbol]; dup {
			return nil, fmt.Errorf("catalog: duplicate symbol %q", a.Symbol)
		}
		if a.Price.IsNegative() {
			return nil, fmt.Errorf("catalog: asset %q has negative price", a.ID)
		}

		cp := a
		c.assets[a.ID] = &cp
		c.order = append(c.order, a.ID)
		symbols[a.Symbol] = struct{}{}
	}
	return c, nil
}

// Get returns a snapshot of the asset, or domain.ErrAssetNotFound.
func (c *Catalog) Get(assetID string) (domain.Asset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.assets[assetID]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return *a, nil
}

// List returns snapshots of all assets in registration order.
func (c *Catalog) List() []domain.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Asset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.assets[id])
	}
	return out
}

// IDs returns all asset ids in registration order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// SetPrice updates an asset's quote. Only the pricing feed calls this.
// Negative prices and unknown assets are rejected.
func (c *Catalog) SetPrice(assetID string, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("catalog: negative price for %q", assetID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.assets[assetID]
	if !ok {
		return domain.ErrAssetNotFound
	}
	a.Price = price
	return nil
}
