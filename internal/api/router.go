package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/findash/backend/internal/api/handlers"
	"github.com/wonny/findash/backend/pkg/logger"
)

const banner = "Financial Analytics Dashboard Backend is running!"

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(market *handlers.MarketHandler, stream http.Handler, cors CORSOptions, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", bannerHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet, http.MethodOptions)

	api := r.PathPrefix("/api").Subrouter()

	// Market data
	api.HandleFunc("/stock/daily/{symbol}", market.GetDailyStock).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/stock/score/{symbol}", market.GetStockScore).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sector-performance", market.GetSectorPerformance).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/market-movers", market.GetMarketMovers).Methods(http.MethodGet, http.MethodOptions)

	// Push updates
	api.Handle("/stream", stream).Methods(http.MethodGet)

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware(cors))

	return r
}

func bannerHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(banner))
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "findash-api",
	})
}
