package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/signals"
	"github.com/luwei/stocklab/internal/stocks"
	"github.com/luwei/stocklab/pkg/logger"
)

// StockHandler handles stock data API endpoints
// ⭐ SSOT: 个股 API 处理只在这个结构体
type StockHandler struct {
	stocks  *stocks.Service
	signals *signals.Engine
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockSvc *stocks.Service, engine *signals.Engine, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stocks:  stockSvc,
		signals: engine,
		logger:  log,
	}
}

var dateParam = regexp.MustCompile(`^\d{8}$`)

// Search matches symbols by code or name
// GET /api/stocks/search?q=
func (h *StockHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query().Get("q")
	if len(q) > 40 {
		respondError(w, http.StatusBadRequest, "query too long")
		return
	}

	items := h.stocks.Search(ctx, q)
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// GetProfile returns static company info
// GET /api/stocks/{ts_code}/profile
func (h *StockHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tsCode := mux.Vars(r)["ts_code"]

	if tsCode == "" {
		respondError(w, http.StatusBadRequest, "ts_code is required")
		return
	}

	respondJSON(w, http.StatusOK, h.stocks.Profile(ctx, tsCode))
}

// GetKline returns daily bars
// GET /api/stocks/{ts_code}/kline?start=YYYYMMDD&end=YYYYMMDD&adj=qfq|none
func (h *StockHandler) GetKline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tsCode := mux.Vars(r)["ts_code"]

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if !dateParam.MatchString(start) || !dateParam.MatchString(end) {
		respondError(w, http.StatusBadRequest, "start/end must be YYYYMMDD")
		return
	}

	adj := r.URL.Query().Get("adj")
	if adj == "" {
		adj = "qfq"
	}
	if adj != "qfq" && adj != "none" {
		respondError(w, http.StatusBadRequest, "adj must be qfq or none")
		return
	}

	bars := h.stocks.Kline(ctx, tsCode, start, end, adj)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ts_code": tsCode,
		"adj":     adj,
		"bars":    bars,
	})
}

// signalsRequest is the body of a signal computation request
type signalsRequest struct {
	DSL  dsl.StrategyDSL `json:"dsl"`
	Days int             `json:"days"`
}

// ComputeSignals scans a symbol's kline against a DSL's exit rules
// POST /api/stocks/{ts_code}/signals
func (h *StockHandler) ComputeSignals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tsCode := mux.Vars(r)["ts_code"]

	var req signalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Days == 0 {
		req.Days = 120
	}

	req.DSL.Normalize()
	if err := req.DSL.Validate(); err != nil {
		respondAppError(w, err)
		return
	}

	report, err := h.signals.ComputeEvents(ctx, tsCode, req.DSL, req.Days)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"ts_code": tsCode,
			"days":    strconv.Itoa(req.Days),
		}).Error("Failed to compute signals")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
