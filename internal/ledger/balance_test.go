package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/coinledger/internal/catalog"
	"github.com/alanyoungcy/coinledger/internal/domain"
	"github.com/alanyoungcy/coinledger/internal/store/memory"
)

func TestBalanceView_Holdings(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	cat, err := catalog.New([]domain.Asset{
		{ID: "btc", Symbol: "BTC", Name: "Bitcoin", Price: dec("100")},
		{ID: "eth", Symbol: "ETH", Name: "Ethereum", Price: dec("10")},
		{ID: "ada", Symbol: "ADA", Name: "Cardano", Price: dec("2")},
	})
	require.NoError(t, err)

	store := memory.NewLedgerStore()
	view := NewBalanceView(store, cat)

	buy := func(asset, qty string) {
		t.Helper()
		_, err := store.RecordBuy(ctx, domain.Transaction{
			UserID:    "u1",
			AssetID:   asset,
			Type:      domain.TransactionBuy,
			Quantity:  dec(qty),
			UnitPrice: dec("1"),
			Total:     dec(qty),
			Timestamp: now,
		})
		require.NoError(t, err)
	}

	t.Run("empty wallet", func(t *testing.T) {
		details, err := view.Holdings(ctx, "u1")
		require.NoError(t, err)
		require.Empty(t, details)

		total, err := view.TotalValue(ctx, "u1")
		require.NoError(t, err)
		require.True(t, total.IsZero())
	})

	// Acquired in eth, btc order; listing must follow catalog order instead.
	buy("eth", "3")
	buy("btc", "0.5")

	t.Run("catalog order and repriced values", func(t *testing.T) {
		details, err := view.Holdings(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, details, 2)

		require.Equal(t, "btc", details[0].AssetID)
		require.Equal(t, "BTC", details[0].Symbol)
		require.True(t, details[0].TotalValue.Equal(dec("50")))

		require.Equal(t, "eth", details[1].AssetID)
		require.True(t, details[1].TotalValue.Equal(dec("30")))

		total, err := view.TotalValue(ctx, "u1")
		require.NoError(t, err)
		require.True(t, total.Equal(dec("80")))
	})

	t.Run("totals follow the current quote", func(t *testing.T) {
		require.NoError(t, cat.SetPrice("btc", dec("200")))

		total, err := view.TotalValue(ctx, "u1")
		require.NoError(t, err)
		require.True(t, total.Equal(dec("130")))
	})
}
