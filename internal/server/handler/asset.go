package handler

import (
	"net/http"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// AssetCatalog is the read surface the asset handler needs.
type AssetCatalog interface {
	List() []domain.Asset
}

// AssetHandler serves the asset catalog.
type AssetHandler struct {
	catalog AssetCatalog
}

// NewAssetHandler creates an AssetHandler over the given catalog.
func NewAssetHandler(catalog AssetCatalog) *AssetHandler {
	return &AssetHandler{catalog: catalog}
}

type listAssetsResponse struct {
	Assets []domain.Asset `json:"assets"`
}

// ListAssets returns every tradable asset with its current quote, in catalog
// order.
// GET /api/assets
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.catalog.List()
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, listAssetsResponse{Assets: assets})
}
