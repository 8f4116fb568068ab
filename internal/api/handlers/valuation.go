package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ovchar/divspread/internal/contracts"
	"github.com/ovchar/divspread/internal/refdata"
	"github.com/ovchar/divspread/internal/valuation"
	"github.com/ovchar/divspread/pkg/logger"
)

// ValuationHandler handles valuation API endpoints
type ValuationHandler struct {
	engine   *valuation.Engine
	viewer   *valuation.IndexViewer
	pipeline *refdata.Pipeline
	logger   *logger.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(engine *valuation.Engine, viewer *valuation.IndexViewer, pipeline *refdata.Pipeline, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		engine:   engine,
		viewer:   viewer,
		pipeline: pipeline,
		logger:   log,
	}
}

// TickersResponse lists stock tickers that can be valuated
type TickersResponse struct {
	Tickers []string `json:"tickers"`
	Count   int      `json:"count"`
}

// GetTickers returns the tickers that have eligible futures contracts
// GET /api/tickers
func (h *ValuationHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tickers, err := h.engine.ListAvailableTickers(ctx)
	if err != nil {
		h.respondFailure(w, err, "Failed to list tickers")
		return
	}

	respondJSON(w, http.StatusOK, TickersResponse{Tickers: tickers, Count: len(tickers)})
}

// ValuationResponse holds the priced contracts for one underlying stock
type ValuationResponse struct {
	Ticker    string                      `json:"ticker"`
	Name      string                      `json:"name"`
	Contracts []contracts.ValuationResult `json:"contracts"`
}

// GetValuation returns implied dividends for one ticker's futures
// GET /api/valuation/{ticker}
func (h *ValuationHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])

	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	results, stock, err := h.engine.Valuate(ctx, ticker)
	if err != nil {
		h.respondFailure(w, err, "Valuation failed")
		return
	}

	respondJSON(w, http.StatusOK, ValuationResponse{
		Ticker:    stock.Ticker,
		Name:      stock.Name,
		Contracts: results,
	})
}

// AllValuationsResponse holds the whole priced universe
type AllValuationsResponse struct {
	Results []contracts.ValuationResult `json:"results"`
	Count   int                         `json:"count"`
}

// GetAllValuations returns implied dividends for every valuatable ticker
// GET /api/valuation
func (h *ValuationHandler) GetAllValuations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := h.engine.ValuateAll(ctx)
	if err != nil {
		h.respondFailure(w, err, "Batch valuation failed")
		return
	}

	respondJSON(w, http.StatusOK, AllValuationsResponse{Results: results, Count: len(results)})
}

// IndexesResponse lists the allow-listed indices with last prices
type IndexesResponse struct {
	Indexes []contracts.IndexQuote `json:"indexes"`
	Count   int                    `json:"count"`
}

// GetIndexes returns last prices for the designated market indices
// GET /api/indexes
func (h *ValuationHandler) GetIndexes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	quotes, err := h.viewer.Run(ctx)
	if err != nil {
		h.respondFailure(w, err, "Index lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, IndexesResponse{Indexes: quotes, Count: len(quotes)})
}

// RefreshResponse reports the datasets that were re-pulled
type RefreshResponse struct {
	Status   string   `json:"status"`
	Datasets []string `json:"datasets"`
}

// Refresh forces a reference data re-pull regardless of cache freshness
// POST /api/refresh
func (h *ValuationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	datasets := []string{refdata.DatasetStocks, refdata.DatasetFutures}
	for _, dataset := range datasets {
		if err := h.pipeline.Refresh(ctx, dataset); err != nil {
			h.logger.WithError(err).WithField("dataset", dataset).Error("Refresh failed")
			h.respondFailure(w, err, "Refresh failed")
			return
		}
	}

	respondJSON(w, http.StatusOK, RefreshResponse{Status: "ok", Datasets: datasets})
}

// respondFailure maps domain errors onto HTTP statuses: unknown or
// unpriceable tickers are client errors, provider failures are upstream
// errors, everything else is internal.
func (h *ValuationHandler) respondFailure(w http.ResponseWriter, err error, fallback string) {
	switch {
	case contracts.IsValidation(err):
		respondError(w, http.StatusNotFound, err.Error())
	case contracts.IsProvider(err):
		h.logger.WithError(err).Error(fallback)
		respondError(w, http.StatusBadGateway, "Upstream market data provider failed")
	default:
		h.logger.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
