package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes buy and sell ledger entries.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction is one executed order in the append-only ledger. IDs are
// assigned by the store and strictly increase system-wide, so (Timestamp, ID)
// is a total order over the history. UnitPrice and Total are snapshots taken
// at execution time and never change afterwards.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	AssetID     string          `json:"asset_id"`
	AssetSymbol string          `json:"asset_symbol"`
	AssetName   string          `json:"asset_name"`
	Type        TransactionType `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Timestamp   time.Time       `json:"timestamp"`
}
