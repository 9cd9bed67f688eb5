package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/luwei/stocklab/internal/api/handlers"
	"github.com/luwei/stocklab/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 路由配置只在这个函数
func NewRouter(
	marketHandler *handlers.MarketHandler,
	stockHandler *handlers.StockHandler,
	strategyHandler *handlers.StrategyHandler,
	streamHandler *handlers.StreamHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Market endpoints
	api.HandleFunc("/market/overview", marketHandler.GetOverview).Methods("GET")

	// Stock endpoints
	api.HandleFunc("/stocks/search", stockHandler.Search).Methods("GET")
	api.HandleFunc("/stocks/{ts_code}/profile", stockHandler.GetProfile).Methods("GET")
	api.HandleFunc("/stocks/{ts_code}/kline", stockHandler.GetKline).Methods("GET")
	api.HandleFunc("/stocks/{ts_code}/signals", stockHandler.ComputeSignals).Methods("POST")

	// Strategy endpoints
	api.HandleFunc("/strategies", strategyHandler.List).Methods("GET")
	api.HandleFunc("/strategies", strategyHandler.Create).Methods("POST")
	api.HandleFunc("/strategies/parse_nl", strategyHandler.ParseNL).Methods("POST")
	api.HandleFunc("/strategies/run_draft", strategyHandler.RunDraft).Methods("POST")
	api.HandleFunc("/strategies/{id}/run", strategyHandler.Run).Methods("POST")
	api.HandleFunc("/strategies/{id}/runs", strategyHandler.ListRuns).Methods("GET")

	// Realtime stream
	api.HandleFunc("/stream", streamHandler.Stream).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware)

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stocklab-api",
	})
}

// corsMiddleware allows the demo frontend to call from anywhere
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
