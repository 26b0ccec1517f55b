package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

const apiPrefix = "/api/v1"

// SetupRoutes configures all API routes. metricsHandler is mounted at /metrics.
// Routes hang off the root router so a method mismatch answers 405 rather than 404.
func SetupRoutes(handler *Handler, metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", metricsHandler).Methods("GET")

	// Analysis routes; summary is registered before {symbol} so it is not captured
	r.HandleFunc(apiPrefix+"/analysis", handler.GetAllAnalyses).Methods("GET")
	r.HandleFunc(apiPrefix+"/analysis/summary", handler.GetSummary).Methods("GET")
	r.HandleFunc(apiPrefix+"/analysis/{symbol}", handler.GetAnalysis).Methods("GET")

	r.HandleFunc(apiPrefix+"/report", handler.GetReport).Methods("GET")
	r.HandleFunc(apiPrefix+"/report/regenerate", handler.RegenerateReport).Methods("POST")

	r.HandleFunc(apiPrefix+"/klines/{symbol}", handler.GetKlines).Methods("GET")
	r.HandleFunc(apiPrefix+"/marketdata", handler.GetAllMarketData).Methods("GET")
	r.HandleFunc(apiPrefix+"/marketdata/{symbol}", handler.GetMarketData).Methods("GET")

	// Watchlist routes
	r.HandleFunc(apiPrefix+"/symbols", handler.GetSymbols).Methods("GET")
	r.HandleFunc(apiPrefix+"/symbols", handler.AddSymbol).Methods("POST")
	r.HandleFunc(apiPrefix+"/symbols/{symbol}", handler.RemoveSymbol).Methods("DELETE")

	return r
}
