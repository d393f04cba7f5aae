package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// LedgerStore implements domain.HoldingStore, domain.TransactionStore and
// domain.TradeStore using PostgreSQL. A trade's holding mutation and ledger
// append run inside one database transaction, so a failed debit leaves no
// trace.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a LedgerStore backed by the given connection pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// storageErr tags err as a storage failure so callers can match
// domain.ErrStorageUnavailable while keeping the driver error in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("postgres: %s: %w", op, errors.Join(domain.ErrStorageUnavailable, err))
}

// Quantity returns the held quantity for (userID, assetID), zero when absent.
func (s *LedgerStore) Quantity(ctx context.Context, userID, assetID string) (decimal.Decimal, error) {
	const query = `SELECT quantity::text FROM holdings WHERE user_id = $1 AND asset_id = $2`

	var raw string
	err := s.pool.QueryRow(ctx, query, userID, assetID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, storageErr("get holding", err)
	}

	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("postgres: parse holding quantity %q: %w", raw, err)
	}
	return qty, nil
}

// ListForUser returns non-zero holdings in a stable (asset id) order.
func (s *LedgerStore) ListForUser(ctx context.Context, userID string) ([]domain.Holding, error) {
	const query = `
		SELECT asset_id, quantity::text
		FROM holdings
		WHERE user_id = $1 AND quantity > 0
		ORDER BY asset_id`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, storageErr("list holdings", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var (
			assetID string
			raw     string
		)
		if err := rows.Scan(&assetID, &raw); err != nil {
			return nil, storageErr("scan holding", err)
		}
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("postgres: parse holding quantity %q: %w", raw, err)
		}
		holdings = append(holdings, domain.Holding{
			UserID:   userID,
			AssetID:  assetID,
			Quantity: qty,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list holdings", err)
	}
	return holdings, nil
}

// RecordBuy upserts the holding credit and appends the ledger row in one
// database transaction, returning the row with its assigned id.
func (s *LedgerStore) RecordBuy(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Transaction{}, storageErr("begin buy", err)
	}
	defer dbTx.Rollback(ctx)

	const credit = `
		INSERT INTO holdings (user_id, asset_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, asset_id)
		DO UPDATE SET quantity = holdings.quantity + EXCLUDED.quantity, updated_at = NOW()`

	if _, err := dbTx.Exec(ctx, credit, tx.UserID, tx.AssetID, tx.Quantity.String()); err != nil {
		return domain.Transaction{}, storageErr("credit holding", err)
	}

	created, err := appendTransaction(ctx, dbTx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return domain.Transaction{}, storageErr("commit buy", err)
	}
	return created, nil
}

// RecordSell performs a conditional debit and appends the ledger row in one
// database transaction. When the held quantity is smaller than tx.Quantity
// the debit matches no row, the transaction rolls back, and
// domain.ErrInsufficientHoldings is returned.
func (s *LedgerStore) RecordSell(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Transaction{}, storageErr("begin sell", err)
	}
	defer dbTx.Rollback(ctx)

	const debit = `
		UPDATE holdings
		SET quantity = quantity - $3, updated_at = NOW()
		WHERE user_id = $1 AND asset_id = $2 AND quantity >= $3`

	tag, err := dbTx.Exec(ctx, debit, tx.UserID, tx.AssetID, tx.Quantity.String())
	if err != nil {
		return domain.Transaction{}, storageErr("debit holding", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Transaction{}, domain.ErrInsufficientHoldings
	}

	created, err := appendTransaction(ctx, dbTx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return domain.Transaction{}, storageErr("commit sell", err)
	}
	return created, nil
}

func appendTransaction(ctx context.Context, dbTx pgx.Tx, tx domain.Transaction) (domain.Transaction, error) {
	const insert = `
		INSERT INTO transactions (user_id, asset_id, asset_symbol, asset_name, type, quantity, unit_price, total, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := dbTx.QueryRow(ctx, insert,
		tx.UserID, tx.AssetID, tx.AssetSymbol, tx.AssetName,
		string(tx.Type),
		tx.Quantity.String(), tx.UnitPrice.String(), tx.Total.String(),
		tx.Timestamp,
	).Scan(&tx.ID)
	if err != nil {
		return domain.Transaction{}, storageErr("append transaction", err)
	}
	return tx, nil
}

const transactionSelectCols = `id, user_id, asset_id, asset_symbol, asset_name, type,
	quantity::text, unit_price::text, total::text, ts`

// HistoryForUser returns the user's transactions ordered by (ts, id), newest
// first unless opts.Ascending is set.
func (s *LedgerStore) HistoryForUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Transaction, error) {
	order := "DESC"
	if opts.Ascending {
		order = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE user_id = $1
		ORDER BY ts %s, id %s
		LIMIT $2 OFFSET $3`, transactionSelectCols, order, order)

	rows, err := s.pool.Query(ctx, query, userID, limit, opts.Offset)
	if err != nil {
		return nil, storageErr("list history", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list history", err)
	}
	return txs, nil
}

func scanTransactionRow(row pgx.Row) (domain.Transaction, error) {
	var (
		tx                       domain.Transaction
		typ                      string
		qtyRaw, priceRaw, totRaw string
	)
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.AssetID, &tx.AssetSymbol, &tx.AssetName,
		&typ, &qtyRaw, &priceRaw, &totRaw, &tx.Timestamp,
	)
	if err != nil {
		return domain.Transaction{}, storageErr("scan transaction", err)
	}
	tx.Type = domain.TransactionType(typ)

	if tx.Quantity, err = decimal.NewFromString(qtyRaw); err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: parse quantity %q: %w", qtyRaw, err)
	}
	if tx.UnitPrice, err = decimal.NewFromString(priceRaw); err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: parse unit price %q: %w", priceRaw, err)
	}
	if tx.Total, err = decimal.NewFromString(totRaw); err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: parse total %q: %w", totRaw, err)
	}
	return tx, nil
}

// Compile-time interface checks.
var (
	_ domain.HoldingStore     = (*LedgerStore)(nil)
	_ domain.TransactionStore = (*LedgerStore)(nil)
	_ domain.TradeStore       = (*LedgerStore)(nil)
)
