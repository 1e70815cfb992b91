package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/findash/backend/internal/realtime"
	"github.com/wonny/findash/backend/internal/score"
	"github.com/wonny/findash/backend/pkg/logger"
)

// ScoreRefresher rescores a symbol from a fresh daily series
type ScoreRefresher interface {
	RefreshScore(ctx context.Context, symbol string) (*score.Result, error)
}

// ScoreUpdate is one watchlist entry pushed to dashboards
type ScoreUpdate struct {
	Symbol string        `json:"symbol"`
	Result *score.Result `json:"result"`
}

// WatchlistScoreJob keeps the scores of watched symbols warm
type WatchlistScoreJob struct {
	service ScoreRefresher
	hub     Broadcaster
	symbols []string
	logger  *logger.Logger
}

// NewWatchlistScoreJob creates a new watchlist score job
func NewWatchlistScoreJob(service ScoreRefresher, hub Broadcaster, symbols []string, log *logger.Logger) *WatchlistScoreJob {
	return &WatchlistScoreJob{
		service: service,
		hub:     hub,
		symbols: symbols,
		logger:  log,
	}
}

// Name returns the job name
func (j *WatchlistScoreJob) Name() string {
	return "watchlist-score-refresh"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *WatchlistScoreJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run rescores every watched symbol. A symbol that fails is logged and
// skipped; the run fails only when no symbol could be scored.
func (j *WatchlistScoreJob) Run(ctx context.Context) error {
	if len(j.symbols) == 0 {
		return nil
	}

	updates := make([]ScoreUpdate, 0, len(j.symbols))
	var lastErr error

	for _, symbol := range j.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := j.service.RefreshScore(ctx, symbol)
		if err != nil {
			lastErr = err
			entry := j.logger.WithError(err).WithField("symbol", symbol)
			if errors.Is(err, score.ErrInsufficientData) {
				entry.Debug("Skipping symbol without enough history")
			} else {
				entry.Warn("Failed to refresh stock score")
			}
			continue
		}

		updates = append(updates, ScoreUpdate{Symbol: symbol, Result: result})
	}

	if len(updates) == 0 {
		return fmt.Errorf("no watchlist symbol could be scored: %w", lastErr)
	}

	sent, err := j.hub.Broadcast(realtime.TypeStockScore, updates)
	if err != nil {
		return fmt.Errorf("broadcast stock scores: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"scored":  len(updates),
		"failed":  len(j.symbols) - len(updates),
		"clients": sent,
	}).Info("Watchlist scores refreshed")

	return nil
}
