package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/coinledger/internal/auth"
	"github.com/alanyoungcy/coinledger/internal/catalog"
	"github.com/alanyoungcy/coinledger/internal/domain"
	"github.com/alanyoungcy/coinledger/internal/ledger"
	"github.com/alanyoungcy/coinledger/internal/server/handler"
	"github.com/alanyoungcy/coinledger/internal/store/memory"
)

// testAPI wires the full stack over memory storage and exposes the root
// handler for httptest requests.
type testAPI struct {
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.New([]domain.Asset{
		{ID: "btc", Symbol: "BTC", Name: "Bitcoin", Price: decimal.RequireFromString("100")},
		{ID: "eth", Symbol: "ETH", Name: "Ethereum", Price: decimal.RequireFromString("10")},
	})
	require.NoError(t, err)

	ledgerStore := memory.NewLedgerStore()
	userStore := memory.NewUserStore(ledgerStore)

	signer := auth.NewTokenSigner("test-secret", time.Hour)
	gateway := auth.NewGateway(userStore, signer, logger)

	balance := ledger.NewBalanceView(ledgerStore, cat)
	processor := ledger.NewProcessor(cat, ledgerStore, ledger.NewKeyedLocker(), balance, logger)

	srv := New(
		Config{Port: 0},
		Handlers{
			Health:       handler.NewHealthHandler(logger),
			Auth:         handler.NewAuthHandler(gateway, logger),
			Assets:       handler.NewAssetHandler(cat),
			Wallet:       handler.NewWalletHandler(balance, logger),
			Transactions: handler.NewTransactionHandler(processor, ledgerStore, logger),
		},
		gateway,
		logger,
	)
	return &testAPI{handler: srv.httpServer.Handler}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func (a *testAPI) register(t *testing.T, name, email string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "pw12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess struct {
		Token string `json:"access_token"`
	}
	decodeBody(t, rec, &sess)
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	t.Run("health", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Status string `json:"status"`
		}
		decodeBody(t, rec, &body)
		require.Equal(t, "ok", body.Status)
	})

	t.Run("assets are listed in catalog order", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/assets", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Assets []domain.Asset `json:"assets"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Assets, 2)
		require.Equal(t, "btc", body.Assets[0].ID)
		require.Equal(t, "eth", body.Assets[1].ID)
	})
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	token := api.register(t, "Alice", "alice@example.com")

	t.Run("me", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var u domain.User
		decodeBody(t, rec, &u)
		require.Equal(t, "alice@example.com", u.Email)
		require.NotContains(t, rec.Body.String(), "password", "hash must never serialize")
	})

	t.Run("login", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "pw12345",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name":     "Imposter",
			"email":    "alice@example.com",
			"password": "pw",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("protected route without token", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/wallet", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("protected route with garbage token", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/wallet", "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("update name", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, "/api/auth/update", token, map[string]string{
			"name": "Alicia",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var u domain.User
		decodeBody(t, rec, &u)
		require.Equal(t, "Alicia", u.Name)
	})

	t.Run("delete account invalidates token", func(t *testing.T) {
		rec := api.do(t, http.MethodDelete, "/api/auth/delete", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTradeFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Bob", "bob@example.com")

	type tradeResponse struct {
		Transaction domain.Transaction `json:"transaction"`
		Balance     decimal.Decimal    `json:"balance"`
	}

	t.Run("buy", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/transactions/buy", token, map[string]any{
			"asset_id": "btc",
			"quantity": "0.5",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res tradeResponse
		decodeBody(t, rec, &res)
		require.Equal(t, int64(1), res.Transaction.ID)
		require.True(t, res.Transaction.Total.Equal(decimal.RequireFromString("50")))
		require.True(t, res.Balance.Equal(decimal.RequireFromString("50")))
	})

	t.Run("wallet reflects the buy", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/wallet", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Holdings []domain.HoldingDetail `json:"holdings"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Holdings, 1)
		require.Equal(t, "btc", body.Holdings[0].AssetID)
		require.True(t, body.Holdings[0].Quantity.Equal(decimal.RequireFromString("0.5")))
	})

	t.Run("balance", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/wallet/balance", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Total decimal.Decimal `json:"total"`
		}
		decodeBody(t, rec, &body)
		require.True(t, body.Total.Equal(decimal.RequireFromString("50")))
	})

	t.Run("sell", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/transactions/sell", token, map[string]any{
			"asset_id": "btc",
			"quantity": "0.2",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res tradeResponse
		decodeBody(t, rec, &res)
		require.True(t, res.Balance.Equal(decimal.RequireFromString("30")))
	})

	t.Run("history newest first", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/transactions/history", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Transactions []domain.Transaction `json:"transactions"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Transactions, 2)
		require.Equal(t, domain.TransactionSell, body.Transactions[0].Type)
		require.Equal(t, domain.TransactionBuy, body.Transactions[1].Type)
	})

	t.Run("error statuses", func(t *testing.T) {
		cases := []struct {
			name string
			body map[string]any
			want int
		}{
			{"oversell", map[string]any{"asset_id": "btc", "quantity": "99"}, http.StatusBadRequest},
			{"zero quantity", map[string]any{"asset_id": "btc", "quantity": "0"}, http.StatusBadRequest},
			{"negative quantity", map[string]any{"asset_id": "btc", "quantity": "-1"}, http.StatusBadRequest},
			{"too many decimals", map[string]any{"asset_id": "btc", "quantity": "0.000000001"}, http.StatusBadRequest},
			{"unknown asset", map[string]any{"asset_id": "doge", "quantity": "1"}, http.StatusNotFound},
			{"missing asset_id", map[string]any{"quantity": "1"}, http.StatusBadRequest},
			{"unknown field", map[string]any{"asset_id": "btc", "quantity": "1", "bogus": true}, http.StatusBadRequest},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := api.do(t, http.MethodPost, "/api/transactions/sell", token, tc.body)
				require.Equal(t, tc.want, rec.Code, rec.Body.String())
			})
		}
	})
}
