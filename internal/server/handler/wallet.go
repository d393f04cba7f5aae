package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/domain"
	"github.com/alanyoungcy/coinledger/internal/server/middleware"
)

// WalletService derives wallet views from holdings and current quotes.
type WalletService interface {
	TotalValue(ctx context.Context, userID string) (decimal.Decimal, error)
	Holdings(ctx context.Context, userID string) ([]domain.HoldingDetail, error)
}

// WalletHandler serves the wallet read endpoints.
type WalletHandler struct {
	wallet WalletService
	logger *slog.Logger
}

// NewWalletHandler creates a WalletHandler with the given service and logger.
func NewWalletHandler(wallet WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		wallet: wallet,
		logger: logger,
	}
}

type walletResponse struct {
	Holdings []domain.HoldingDetail `json:"holdings"`
}

// GetWallet returns the authenticated user's non-zero holdings priced at the
// current quotes.
// GET /api/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	details, err := h.wallet.Holdings(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if details == nil {
		details = []domain.HoldingDetail{}
	}
	writeJSON(w, http.StatusOK, walletResponse{Holdings: details})
}

type balanceResponse struct {
	Total decimal.Decimal `json:"total"`
}

// GetBalance returns the user's total net worth at current quotes.
// GET /api/wallet/balance
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	total, err := h.wallet.TotalValue(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Total: total})
}
