package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/domain"
	"github.com/alanyoungcy/coinledger/internal/ledger"
	"github.com/alanyoungcy/coinledger/internal/server/middleware"
)

// TradeService executes buys and sells on behalf of an authenticated user.
type TradeService interface {
	ExecuteBuy(ctx context.Context, userID, assetID string, quantity decimal.Decimal) (ledger.TradeResult, error)
	ExecuteSell(ctx context.Context, userID, assetID string, quantity decimal.Decimal) (ledger.TradeResult, error)
}

// TransactionHandler serves the buy/sell/history endpoints.
type TransactionHandler struct {
	trades  TradeService
	history domain.TransactionStore
	logger  *slog.Logger
}

// NewTransactionHandler creates a TransactionHandler with the given
// collaborators.
func NewTransactionHandler(trades TradeService, history domain.TransactionStore, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		trades:  trades,
		history: history,
		logger:  logger,
	}
}

// tradeRequest is the strict payload for buy and sell. Quantity accepts a
// JSON number or string; unknown fields are rejected at decode time.
type tradeRequest struct {
	AssetID  string          `json:"asset_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Buy executes a buy order for the authenticated user.
// POST /api/transactions/buy
func (h *TransactionHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.trades.ExecuteBuy)
}

// Sell executes a sell order for the authenticated user.
// POST /api/transactions/sell
func (h *TransactionHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.trades.ExecuteSell)
}

func (h *TransactionHandler) trade(
	w http.ResponseWriter,
	r *http.Request,
	execute func(ctx context.Context, userID, assetID string, quantity decimal.Decimal) (ledger.TradeResult, error),
) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req tradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AssetID == "" {
		writeError(w, http.StatusBadRequest, "asset_id is required")
		return
	}

	result, err := execute(r.Context(), user.ID, req.AssetID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type historyResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// History returns the user's transaction log, newest first by default.
// GET /api/transactions/history?limit=50&offset=0&order=desc
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	txs, err := h.history.HistoryForUser(r.Context(), user.ID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Transactions: txs})
}
