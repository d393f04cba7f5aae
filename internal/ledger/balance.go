package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/catalog"
	"github.com/alanyoungcy/coinledger/internal/domain"
)

// BalanceView derives wallet totals from holdings and current catalog quotes.
// Nothing is cached between calls; every read reprices against whatever the
// feed has published most recently.
type BalanceView struct {
	holdings domain.HoldingStore
	catalog  *catalog.Catalog
}

// NewBalanceView creates a BalanceView over the given holdings and catalog.
func NewBalanceView(holdings domain.HoldingStore, cat *catalog.Catalog) *BalanceView {
	return &BalanceView{
		holdings: holdings,
		catalog:  cat,
	}
}

// TotalValue returns the user's net worth: the sum of quantity times current
// price over all non-zero holdings.
func (v *BalanceView) TotalValue(ctx context.Context, userID string) (decimal.Decimal, error) {
	details, err := v.Holdings(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.TotalValue)
	}
	return total, nil
}

// Holdings returns the user's non-zero holdings joined with catalog pricing,
// in catalog registration order. Holdings whose asset has left the catalog
// are skipped rather than failing the whole read.
func (v *BalanceView) Holdings(ctx context.Context, userID string) ([]domain.HoldingDetail, error) {
	rows, err := v.holdings.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list holdings for %s: %w", userID, err)
	}

	byAsset := make(map[string]decimal.Decimal, len(rows))
	for _, h := range rows {
		byAsset[h.AssetID] = h.Quantity
	}

	details := make([]domain.HoldingDetail, 0, len(rows))
	for _, a := range v.catalog.List() {
		qty, ok := byAsset[a.ID]
		if !ok || qty.IsZero() {
			continue
		}
		details = append(details, domain.HoldingDetail{
			AssetID:    a.ID,
			Symbol:     a.Symbol,
			Name:       a.Name,
			Quantity:   qty,
			UnitPrice:  a.Price,
			TotalValue: qty.Mul(a.Price),
		})
	}
	return details, nil
}
