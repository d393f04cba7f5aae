package domain

import "github.com/shopspring/decimal"

// QuantityScale is the number of decimal places supported for trade and
// holding quantities (resolution 1e-8).
const QuantityScale = 8

// Holding is one (user, asset) position row. Quantity never goes negative;
// a zero quantity is equivalent to the row being absent.
type Holding struct {
	UserID   string          `json:"user_id"`
	AssetID  string          `json:"asset_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// HoldingDetail joins a holding with current catalog pricing for wallet views.
type HoldingDetail struct {
	AssetID    string          `json:"asset_id"`
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// ValidateQuantity checks that q is a positive quantity representable at the
// supported resolution. It returns ErrInvalidQuantity otherwise.
func ValidateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return ErrInvalidQuantity
	}
	if !q.Round(QuantityScale).Equal(q) {
		return ErrInvalidQuantity
	}
	return nil
}
