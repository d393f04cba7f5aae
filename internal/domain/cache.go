package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountLocker serializes ledger writes per user. Lock blocks (or retries)
// until the user's account lock is acquired and returns an unlock function
// that must be called exactly when the critical section ends. It returns
// ErrConcurrencyConflict when the lock cannot be acquired in time.
type AccountLocker interface {
	Lock(ctx context.Context, userID string) (func(), error)
}

// PriceCache shares the latest asset quotes between instances.
type PriceCache interface {
	SetPrice(ctx context.Context, assetID string, price decimal.Decimal, ts time.Time) error
	GetPrice(ctx context.Context, assetID string) (decimal.Decimal, time.Time, error)
	GetPrices(ctx context.Context, assetIDs []string) (map[string]decimal.Decimal, error)
}
