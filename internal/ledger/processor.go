// Package ledger implements the transaction processor: the single write path
// for buys and sells, plus the derived balance view. All monetary math uses
// arbitrary-precision decimals.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/catalog"
	"github.com/alanyoungcy/coinledger/internal/domain"
)

// TradeResult is the outcome of an executed buy or sell: the created ledger
// entry plus the user's repriced total balance.
type TradeResult struct {
	Transaction domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

// Processor orchestrates buys and sells: validate, snapshot the price, lock
// the account, apply the atomic holding mutation + ledger append, unlock,
// and report the new balance.
type Processor struct {
	catalog *catalog.Catalog
	trades  domain.TradeStore
	locker  domain.AccountLocker
	balance *BalanceView
	logger  *slog.Logger
	now     func() time.Time
}

// NewProcessor creates a Processor with all required collaborators.
func NewProcessor(
	cat *catalog.Catalog,
	trades domain.TradeStore,
	locker domain.AccountLocker,
	balance *BalanceView,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		catalog: cat,
		trades:  trades,
		locker:  locker,
		balance: balance,
		logger:  logger.With(slog.String("component", "processor")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteBuy fills a buy order for quantity units of the asset at the current
// quote. The price is snapshotted once, before the account lock, and that
// snapshot is used for both the ledger entry and the reported total.
func (p *Processor) ExecuteBuy(ctx context.Context, userID, assetID string, quantity decimal.Decimal) (TradeResult, error) {
	return p.execute(ctx, domain.TransactionBuy, userID, assetID, quantity)
}

// ExecuteSell fills a sell order. It fails with ErrInsufficientHoldings when
// the user holds less than the requested quantity, in which case neither the
// holding nor the ledger changes.
func (p *Processor) ExecuteSell(ctx context.Context, userID, assetID string, quantity decimal.Decimal) (TradeResult, error) {
	return p.execute(ctx, domain.TransactionSell, userID, assetID, quantity)
}

func (p *Processor) execute(ctx context.Context, typ domain.TransactionType, userID, assetID string, quantity decimal.Decimal) (TradeResult, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return TradeResult{}, err
	}

	// Price snapshot happens before the lock and is never re-read inside the
	// critical section.
	asset, err := p.catalog.Get(assetID)
	if err != nil {
		return TradeResult{}, err
	}

	unlock, err := p.locker.Lock(ctx, userID)
	if err != nil {
		return TradeResult{}, err
	}
	defer unlock()

	tx := domain.Transaction{
		UserID:      userID,
		AssetID:     asset.ID,
		AssetSymbol: asset.Symbol,
		AssetName:   asset.Name,
		Type:        typ,
		Quantity:    quantity,
		UnitPrice:   asset.Price,
		Total:       quantity.Mul(asset.Price),
		Timestamp:   p.now(),
	}

	var created domain.Transaction
	switch typ {
	case domain.TransactionBuy:
		created, err = p.trades.RecordBuy(ctx, tx)
	case domain.TransactionSell:
		created, err = p.trades.RecordSell(ctx, tx)
	default:
		return TradeResult{}, fmt.Errorf("ledger: unsupported transaction type %q", typ)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHoldings) {
			return TradeResult{}, domain.ErrInsufficientHoldings
		}
		return TradeResult{}, fmt.Errorf("ledger: record %s for %s: %w", typ, userID, err)
	}

	total, err := p.balance.TotalValue(ctx, userID)
	if err != nil {
		// The trade is durable at this point; only the balance read failed.
		return TradeResult{}, fmt.Errorf("ledger: balance after %s for %s: %w", typ, userID, err)
	}

	p.logger.InfoContext(ctx, "trade executed",
		slog.String("user_id", userID),
		slog.String("asset_id", asset.ID),
		slog.String("type", string(typ)),
		slog.String("quantity", quantity.String()),
		slog.String("unit_price", asset.Price.String()),
		slog.Int64("tx_id", created.ID),
	)

	return TradeResult{Transaction: created, Balance: total}, nil
}
