package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/strategy"
	"github.com/luwei/stocklab/pkg/logger"
)

// StrategyHandler handles strategy API endpoints
// ⭐ SSOT: 策略 API 处理只在这个结构体
type StrategyHandler struct {
	service *strategy.Service
	logger  *logger.Logger
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(service *strategy.Service, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{
		service: service,
		logger:  log,
	}
}

// List returns all strategies, newest first
// GET /api/strategies
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.service.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list strategies")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// createRequest is the body of a strategy creation request
type createRequest struct {
	Name string          `json:"name"`
	DSL  dsl.StrategyDSL `json:"dsl"`
}

// Create validates, compiles and persists a new strategy
// POST /api/strategies
func (h *StrategyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	record, err := h.service.Create(ctx, req.Name, req.DSL)
	if err != nil {
		h.logger.WithError(err).WithField("name", req.Name).Error("Failed to create strategy")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// parseNLRequest is the body of an NL parse request
type parseNLRequest struct {
	Text string `json:"text"`
}

// ParseNL maps free text to a best-effort DSL.
// Output is advisory — the client should show it for review before creating.
// POST /api/strategies/parse_nl
func (h *StrategyHandler) ParseNL(w http.ResponseWriter, r *http.Request) {
	var req parseNLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"dsl": dsl.ParseNL(req.Text)})
}

// RunDraft executes a DSL without persisting it
// POST /api/strategies/run_draft
func (h *StrategyHandler) RunDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var d dsl.StrategyDSL
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.RunDraft(ctx, d)
	if err != nil {
		h.logger.WithError(err).Error("Failed to run draft strategy")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// Run executes a persisted strategy and records the run
// POST /api/strategies/{id}/run
func (h *StrategyHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	outcome, err := h.service.Run(ctx, id)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Strategy run failed")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// ListRuns returns the most recent runs for a strategy
// GET /api/strategies/{id}/runs?limit=20
func (h *StrategyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			limit = v
		}
	}

	items, err := h.service.Runs(ctx, id, limit)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to list runs")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
