package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ListOpts provides pagination and ordering for history queries.
type ListOpts struct {
	Limit     int
	Offset    int
	Ascending bool // default: newest first
}

// HoldingStore reads per-user asset positions. Rows are only ever mutated
// through TradeStore so that holding updates and ledger appends stay atomic.
type HoldingStore interface {
	// Quantity returns the held quantity for (userID, assetID), zero when no
	// row exists.
	Quantity(ctx context.Context, userID, assetID string) (decimal.Decimal, error)
	// ListForUser returns all non-zero holdings for a user. Callers impose
	// catalog ordering; the store only guarantees a stable order.
	ListForUser(ctx context.Context, userID string) ([]Holding, error)
}

// TransactionStore reads the append-only ledger.
type TransactionStore interface {
	// HistoryForUser returns the user's transactions ordered by
	// (timestamp, id), newest first unless opts.Ascending is set.
	HistoryForUser(ctx context.Context, userID string, opts ListOpts) ([]Transaction, error)
}

// TradeStore executes the write half of a buy or sell: the holding mutation
// and the ledger append happen in one atomic unit, and the assigned
// transaction ID is returned. Neither method validates business rules beyond
// the conditional debit; the processor owns validation and locking.
type TradeStore interface {
	// RecordBuy credits the holding and appends the ledger row.
	RecordBuy(ctx context.Context, tx Transaction) (Transaction, error)
	// RecordSell debits the holding and appends the ledger row. It returns
	// ErrInsufficientHoldings, leaving no trace, when the held quantity is
	// smaller than tx.Quantity.
	RecordSell(ctx context.Context, tx Transaction) (Transaction, error)
}

// UserStore persists account holders for the auth gateway.
type UserStore interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) error
	// Delete removes the user together with their holdings and transaction
	// history in one atomic unit.
	Delete(ctx context.Context, id string) error
}
