package domain

import "github.com/shopspring/decimal"

// Asset is a tradable asset in the catalog. Price is the current quote in the
// settlement currency and is mutated only by the pricing feed; everything else
// is immutable after catalog load.
type Asset struct {
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"` // uppercase, unique
	Name   string          `json:"name"`
	Icon   string          `json:"icon,omitempty"`
	Price  decimal.Decimal `json:"price"`
}
