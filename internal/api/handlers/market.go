package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/findash/backend/internal/contracts"
	"github.com/wonny/findash/backend/internal/external/alphavantage"
	"github.com/wonny/findash/backend/internal/finance"
	"github.com/wonny/findash/backend/internal/score"
	"github.com/wonny/findash/backend/pkg/logger"
)

const (
	msgNoData           = "No daily data available for this symbol to calculate score."
	msgScoreFailed      = "Failed to calculate stock score due to insufficient data or calculation error."
	msgInternalFallback = "Failed to retrieve market data"
)

// MarketService is what the market endpoints read from
type MarketService interface {
	DailySeries(ctx context.Context, symbol string) ([]contracts.DailyBar, error)
	SectorPerformance(ctx context.Context) ([]contracts.SectorPerformance, error)
	MarketMovers(ctx context.Context) (*contracts.MarketMovers, error)
	StockScore(ctx context.Context, symbol string) (*score.Result, error)
}

// MarketHandler handles market data endpoints
// ⭐ SSOT: 에러 → HTTP 상태 매핑은 statusFor 에서만
type MarketHandler struct {
	service MarketService
	logger  *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(service MarketService, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		service: service,
		logger:  log.WithComponent("api"),
	}
}

// GetDailyStock returns the daily series for a symbol
// GET /api/stock/daily/{symbol}
func (h *MarketHandler) GetDailyStock(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	series, err := h.service.DailySeries(r.Context(), symbol)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// GetSectorPerformance returns realtime sector performance
// GET /api/sector-performance
func (h *MarketHandler) GetSectorPerformance(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.service.SectorPerformance(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, sectors)
}

// GetMarketMovers returns top gainers, losers and most active tickers
// GET /api/market-movers
func (h *MarketHandler) GetMarketMovers(w http.ResponseWriter, r *http.Request) {
	movers, err := h.service.MarketMovers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, movers)
}

// GetStockScore returns the composite score for a symbol
// GET /api/stock/score/{symbol}
func (h *MarketHandler) GetStockScore(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	result, err := h.service.StockScore(r.Context(), symbol)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *MarketHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)

	entry := h.logger.WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Market request failed")
	} else {
		entry.Warn("Market request rejected")
	}

	respondError(w, status, message)
}

// statusFor maps service errors to an HTTP status and client message
func statusFor(err error) (int, string) {
	var perr *alphavantage.ProviderError

	switch {
	case errors.As(err, &perr):
		return http.StatusBadRequest, perr.Error()
	case errors.Is(err, finance.ErrInvalidSymbol):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, finance.ErrNoData):
		return http.StatusNotFound, msgNoData
	case errors.Is(err, score.ErrInsufficientData):
		return http.StatusInternalServerError, msgScoreFailed
	default:
		return http.StatusInternalServerError, msgInternalFallback
	}
}
