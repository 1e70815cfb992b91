package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/findash/backend/internal/contracts"
	"github.com/wonny/findash/backend/internal/realtime"
	"github.com/wonny/findash/backend/pkg/logger"
)

// MarketRefresher refreshes the shared market lists in the cache
type MarketRefresher interface {
	RefreshMarketMovers(ctx context.Context) (*contracts.MarketMovers, error)
	RefreshSectorPerformance(ctx context.Context) ([]contracts.SectorPerformance, error)
}

// Broadcaster pushes refreshed data to connected dashboards
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) (int, error)
}

// MarketMoversJob re-fetches the top lists before their cache entry expires
// ⭐ SSOT: top lists 갱신 스케줄은 이 Job에서만
type MarketMoversJob struct {
	service MarketRefresher
	hub     Broadcaster
	logger  *logger.Logger
}

// NewMarketMoversJob creates a new market movers job
func NewMarketMoversJob(service MarketRefresher, hub Broadcaster, log *logger.Logger) *MarketMoversJob {
	return &MarketMoversJob{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// Name returns the job name
func (j *MarketMoversJob) Name() string {
	return "market-movers-refresh"
}

// Schedule returns the cron schedule (every 15 minutes)
func (j *MarketMoversJob) Schedule() string {
	return "0 */15 * * * *"
}

// Run refreshes market movers and pushes them to dashboards
func (j *MarketMoversJob) Run(ctx context.Context) error {
	movers, err := j.service.RefreshMarketMovers(ctx)
	if err != nil {
		return fmt.Errorf("refresh market movers: %w", err)
	}

	sent, err := j.hub.Broadcast(realtime.TypeMarketMovers, movers)
	if err != nil {
		return fmt.Errorf("broadcast market movers: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"gainers": len(movers.TopGainers),
		"losers":  len(movers.TopLosers),
		"clients": sent,
	}).Info("Market movers refreshed")

	return nil
}

// SectorPerformanceJob re-fetches sector performance hourly
type SectorPerformanceJob struct {
	service MarketRefresher
	hub     Broadcaster
	logger  *logger.Logger
}

// NewSectorPerformanceJob creates a new sector performance job
func NewSectorPerformanceJob(service MarketRefresher, hub Broadcaster, log *logger.Logger) *SectorPerformanceJob {
	return &SectorPerformanceJob{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// Name returns the job name
func (j *SectorPerformanceJob) Name() string {
	return "sector-performance-refresh"
}

// Schedule returns the cron schedule (top of every hour)
func (j *SectorPerformanceJob) Schedule() string {
	return "0 0 * * * *"
}

// Run refreshes sector performance and pushes it to dashboards
func (j *SectorPerformanceJob) Run(ctx context.Context) error {
	sectors, err := j.service.RefreshSectorPerformance(ctx)
	if err != nil {
		return fmt.Errorf("refresh sector performance: %w", err)
	}

	sent, err := j.hub.Broadcast(realtime.TypeSectorPerformance, sectors)
	if err != nil {
		return fmt.Errorf("broadcast sector performance: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"sectors": len(sectors),
		"clients": sent,
	}).Info("Sector performance refreshed")

	return nil
}
