package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buyTx(userID, assetID, qty, price string, ts time.Time) domain.Transaction {
	return domain.Transaction{
		UserID:    userID,
		AssetID:   assetID,
		Type:      domain.TransactionBuy,
		Quantity:  dec(qty),
		UnitPrice: dec(price),
		Total:     dec(qty).Mul(dec(price)),
		Timestamp: ts,
	}
}

func sellTx(userID, assetID, qty, price string, ts time.Time) domain.Transaction {
	tx := buyTx(userID, assetID, qty, price, ts)
	tx.Type = domain.TransactionSell
	return tx
}

func TestLedgerStore_RecordBuy(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	now := time.Now().UTC()

	created, err := s.RecordBuy(ctx, buyTx("u1", "btc", "0.5", "100", now))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	qty, err := s.Quantity(ctx, "u1", "btc")
	require.NoError(t, err)
	require.True(t, qty.Equal(dec("0.5")))

	// Second buy accumulates and gets the next id.
	created, err = s.RecordBuy(ctx, buyTx("u1", "btc", "0.25", "110", now))
	require.NoError(t, err)
	require.Equal(t, int64(2), created.ID)

	qty, err = s.Quantity(ctx, "u1", "btc")
	require.NoError(t, err)
	require.True(t, qty.Equal(dec("0.75")))
}

func TestLedgerStore_RecordSell(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("debits holding", func(t *testing.T) {
		s := NewLedgerStore()
		_, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", now))
		require.NoError(t, err)

		_, err = s.RecordSell(ctx, sellTx("u1", "btc", "0.4", "100", now))
		require.NoError(t, err)

		qty, err := s.Quantity(ctx, "u1", "btc")
		require.NoError(t, err)
		require.True(t, qty.Equal(dec("0.6")))
	})

	t.Run("oversell leaves everything untouched", func(t *testing.T) {
		s := NewLedgerStore()
		_, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", now))
		require.NoError(t, err)

		_, err = s.RecordSell(ctx, sellTx("u1", "btc", "1.00000001", "100", now))
		require.True(t, errors.Is(err, domain.ErrInsufficientHoldings))

		qty, err := s.Quantity(ctx, "u1", "btc")
		require.NoError(t, err)
		require.True(t, qty.Equal(dec("1")))

		txs, err := s.HistoryForUser(ctx, "u1", domain.ListOpts{})
		require.NoError(t, err)
		require.Len(t, txs, 1, "failed sell must not append a ledger row")
	})

	t.Run("sell with no holding", func(t *testing.T) {
		s := NewLedgerStore()
		_, err := s.RecordSell(ctx, sellTx("u1", "btc", "0.1", "100", now))
		require.True(t, errors.Is(err, domain.ErrInsufficientHoldings))
	})

	t.Run("exact drain leaves zero row hidden", func(t *testing.T) {
		s := NewLedgerStore()
		_, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", now))
		require.NoError(t, err)
		_, err = s.RecordSell(ctx, sellTx("u1", "btc", "1", "100", now))
		require.NoError(t, err)

		rows, err := s.ListForUser(ctx, "u1")
		require.NoError(t, err)
		require.Empty(t, rows)
	})
}

func TestLedgerStore_ListForUser_FirstBuyOrder(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	now := time.Now().UTC()

	for _, asset := range []string{"eth", "btc", "ada"} {
		_, err := s.RecordBuy(ctx, buyTx("u1", asset, "1", "10", now))
		require.NoError(t, err)
	}
	// A later top-up does not reorder.
	_, err := s.RecordBuy(ctx, buyTx("u1", "eth", "1", "10", now))
	require.NoError(t, err)

	rows, err := s.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "eth", rows[0].AssetID)
	require.Equal(t, "btc", rows[1].AssetID)
	require.Equal(t, "ada", rows[2].AssetID)
	require.True(t, rows[0].Quantity.Equal(dec("2")))
}

func TestLedgerStore_HistoryForUser(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := s.RecordBuy(ctx, buyTx("u2", "btc", "1", "100", base))
	require.NoError(t, err)

	t.Run("newest first by default", func(t *testing.T) {
		txs, err := s.HistoryForUser(ctx, "u1", domain.ListOpts{})
		require.NoError(t, err)
		require.Len(t, txs, 5)
		require.Equal(t, int64(5), txs[0].ID)
		require.Equal(t, int64(1), txs[4].ID)
	})

	t.Run("ascending flips order", func(t *testing.T) {
		txs, err := s.HistoryForUser(ctx, "u1", domain.ListOpts{Ascending: true})
		require.NoError(t, err)
		require.Equal(t, int64(1), txs[0].ID)
		require.Equal(t, int64(5), txs[4].ID)
	})

	t.Run("limit and offset paginate", func(t *testing.T) {
		txs, err := s.HistoryForUser(ctx, "u1", domain.ListOpts{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, txs, 2)
		require.Equal(t, int64(4), txs[0].ID)
		require.Equal(t, int64(3), txs[1].ID)
	})

	t.Run("offset beyond end", func(t *testing.T) {
		txs, err := s.HistoryForUser(ctx, "u1", domain.ListOpts{Offset: 99})
		require.NoError(t, err)
		require.Empty(t, txs)
	})

	t.Run("scoped to the user", func(t *testing.T) {
		txs, err := s.HistoryForUser(ctx, "u2", domain.ListOpts{})
		require.NoError(t, err)
		require.Len(t, txs, 1)
	})

	t.Run("equal timestamps break ties by id", func(t *testing.T) {
		s2 := NewLedgerStore()
		for i := 0; i < 3; i++ {
			_, err := s2.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", base))
			require.NoError(t, err)
		}
		txs, err := s2.HistoryForUser(ctx, "u1", domain.ListOpts{})
		require.NoError(t, err)
		require.Equal(t, int64(3), txs[0].ID)
		require.Equal(t, int64(1), txs[2].ID)
	})
}

func TestLedgerStore_IDsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	now := time.Now().UTC()

	var last int64
	for i := 0; i < 10; i++ {
		created, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", now))
		require.NoError(t, err)
		require.Greater(t, created.ID, last)
		last = created.ID
	}

	// A rejected sell must not consume an id.
	_, err := s.RecordSell(ctx, sellTx("u1", "eth", "1", "100", now))
	require.Error(t, err)

	created, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", now))
	require.NoError(t, err)
	require.Equal(t, last+1, created.ID)
}

func TestLedgerStore_PurgeUser(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	now := time.Now().UTC()

	_, err := s.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", now))
	require.NoError(t, err)
	_, err = s.RecordBuy(ctx, buyTx("u2", "btc", "2", "100", now))
	require.NoError(t, err)

	require.NoError(t, s.PurgeUser(ctx, "u1"))

	rows, err := s.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, rows)

	txs, err := s.HistoryForUser(ctx, "u1", domain.ListOpts{})
	require.NoError(t, err)
	require.Empty(t, txs)

	// Other users are untouched.
	qty, err := s.Quantity(ctx, "u2", "btc")
	require.NoError(t, err)
	require.True(t, qty.Equal(dec("2")))
}
