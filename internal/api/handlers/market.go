package handlers

import (
	"net/http"

	"github.com/luwei/stocklab/internal/market"
	"github.com/luwei/stocklab/pkg/logger"
)

// MarketHandler handles market data API endpoints
// ⭐ SSOT: 大盘 API 处理只在这个结构体
type MarketHandler struct {
	overview *market.Service
	logger   *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(overview *market.Service, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		overview: overview,
		logger:   log,
	}
}

// GetOverview returns the market dashboard payload
// GET /api/market/overview?date=YYYYMMDD
func (h *MarketHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := r.URL.Query().Get("date")

	payload, err := h.overview.Overview(ctx, date)
	if err != nil {
		// Overview degrades to mock internally; this is unexpected
		h.logger.WithError(err).Error("Failed to build market overview")
		respondError(w, http.StatusInternalServerError, "Failed to build market overview")
		return
	}

	respondJSON(w, http.StatusOK, payload)
}
