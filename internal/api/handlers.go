package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/trogers1052/market-analysis-service/internal/database"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
)

const maxCandleLimit = 1000

// Analyzer runs per-symbol analysis
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (*models.KlineAnalysis, error)
	AnalyzeAll(ctx context.Context) (map[string]*models.KlineAnalysis, error)
	Summary(ctx context.Context) (map[string]models.SymbolSummary, error)
}

// Reporter serves the cross-market report
type Reporter interface {
	Report(ctx context.Context) (*models.AnalysisReport, error)
	Regenerate(ctx context.Context) (*models.AnalysisReport, error)
}

// MarketDataReader serves the stored market data view
type MarketDataReader interface {
	MarketData(ctx context.Context, symbol string) (*models.MarketData, error)
	AllMarketData(ctx context.Context) (map[string]*models.MarketData, error)
}

// Store is the persistence used by the handlers
type Store interface {
	Ping(ctx context.Context) error
	GetCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error)
	GetAllMonitoredSymbols(ctx context.Context) ([]*models.MonitoredSymbol, error)
	CreateMonitoredSymbol(ctx context.Context, m *models.MonitoredSymbol) error
	DeleteMonitoredSymbol(ctx context.Context, symbol string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer    Analyzer
	reporter    Reporter
	marketData  MarketDataReader
	store       Store
	logger      *zap.Logger
	validate    *validator.Validate
	candleLimit int
}

// NewHandler creates a new Handler
func NewHandler(
	analyzer Analyzer,
	reporter Reporter,
	marketData MarketDataReader,
	store Store,
	logger *zap.Logger,
	candleLimit int,
) *Handler {
	return &Handler{
		analyzer:    analyzer,
		reporter:    reporter,
		marketData:  marketData,
		store:       store,
		logger:      logger,
		validate:    validator.New(),
		candleLimit: candleLimit,
	}
}

// GetAllAnalyses handles GET /analysis
func (h *Handler) GetAllAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.analyzer.AnalyzeAll(r.Context())
	if err != nil {
		h.serverError(w, "analyze all", err)
		return
	}
	if len(analyses) == 0 {
		http.Error(w, "no analysis available", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, analyses)
}

// GetSummary handles GET /analysis/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analyzer.Summary(r.Context())
	if err != nil {
		h.serverError(w, "summary", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetAnalysis handles GET /analysis/{symbol}
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	analysis, err := h.analyzer.AnalyzeSymbol(r.Context(), symbol)
	if err != nil {
		h.serverError(w, "analyze symbol", err)
		return
	}
	if analysis == nil {
		http.Error(w, "no candles for "+symbol, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, analysis)
}

// GetReport handles GET /report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Report(r.Context())
	if err != nil {
		h.serverError(w, "report", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// RegenerateReport handles POST /report/regenerate
func (h *Handler) RegenerateReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Regenerate(r.Context())
	if err != nil {
		h.serverError(w, "regenerate report", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetKlines handles GET /klines/{symbol}?limit=N
func (h *Handler) GetKlines(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	limit := h.candleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxCandleLimit {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	candles, err := h.store.GetCandles(r.Context(), symbol, limit)
	if err != nil {
		h.serverError(w, "get klines", err)
		return
	}
	if len(candles) == 0 {
		http.Error(w, "no candles for "+symbol, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, candles)
}

// GetMarketData handles GET /marketdata/{symbol}
func (h *Handler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	data, err := h.marketData.MarketData(r.Context(), symbol)
	if err != nil {
		h.serverError(w, "get market data", err)
		return
	}
	if data == nil {
		http.Error(w, "no market data for "+symbol, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// GetAllMarketData handles GET /marketdata
func (h *Handler) GetAllMarketData(w http.ResponseWriter, r *http.Request) {
	all, err := h.marketData.AllMarketData(r.Context())
	if err != nil {
		h.serverError(w, "get all market data", err)
		return
	}
	if len(all) == 0 {
		http.Error(w, "no market data available", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, all)
}

// GetSymbols handles GET /symbols
func (h *Handler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.GetAllMonitoredSymbols(r.Context())
	if err != nil {
		h.serverError(w, "get symbols", err)
		return
	}

	respondJSON(w, http.StatusOK, symbols)
}

// AddSymbol handles POST /symbols
func (h *Handler) AddSymbol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol  string `json:"symbol" validate:"required,alphanum,max=20"`
		Enabled *bool  `json:"enabled"`
		Notes   string `json:"notes" validate:"max=500"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	symbol := &models.MonitoredSymbol{
		Symbol:  req.Symbol,
		Enabled: req.Enabled == nil || *req.Enabled,
		Notes:   req.Notes,
	}
	if err := h.store.CreateMonitoredSymbol(r.Context(), symbol); err != nil {
		h.serverError(w, "add symbol", err)
		return
	}

	respondJSON(w, http.StatusCreated, symbol)
}

// RemoveSymbol handles DELETE /symbols/{symbol}
func (h *Handler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	if err := h.store.DeleteMonitoredSymbol(r.Context(), symbol); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.serverError(w, "remove symbol", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func symbolVar(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["symbol"])
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
