package finance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/findash/backend/internal/cache"
	"github.com/wonny/findash/backend/internal/contracts"
	"github.com/wonny/findash/backend/internal/score"
	"github.com/wonny/findash/backend/pkg/logger"
)

var (
	// ErrInvalidSymbol is returned for an empty or malformed ticker
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrNoData is returned when the upstream has no daily series for a symbol
	ErrNoData = errors.New("no daily data available for this symbol to calculate score")
)

// DefaultFetchTimeout bounds one shared upstream fetch, limiter wait included
const DefaultFetchTimeout = 25 * time.Second

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-:^=]{0,19}$`)

// MarketData is the upstream the service reads from
type MarketData interface {
	FetchDailySeries(ctx context.Context, symbol string) ([]contracts.DailyBar, error)
	FetchSectorPerformance(ctx context.Context) ([]contracts.SectorPerformance, error)
	FetchMarketMovers(ctx context.Context) (*contracts.MarketMovers, error)
}

// Service serves dashboard data, reading through the cache
// ⭐ SSOT: upstream 조회 + 캐시 + 점수 계산 조합은 여기서만
type Service struct {
	source MarketData
	store  cache.Store
	logger *logger.Logger

	// inflight collapses concurrent misses on one key into a single upstream call
	inflight     singleflight.Group
	fetchTimeout time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithFetchTimeout sets the deadline of a shared upstream fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// NewService creates a new finance service
func NewService(source MarketData, store cache.Store, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		source:       source,
		store:        store,
		logger:       log.WithComponent("finance"),
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeSymbol trims and upper-cases a ticker and checks its shape
func NormalizeSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
	}
	return symbol, nil
}

// DailySeries returns the symbol's daily bars, oldest first
func (s *Service) DailySeries(ctx context.Context, rawSymbol string) ([]contracts.DailyBar, error) {
	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	return getOrFetch(ctx, s, cache.DailyStockKey(symbol), cache.DailyStock,
		func(ctx context.Context) ([]contracts.DailyBar, error) {
			return s.source.FetchDailySeries(ctx, symbol)
		})
}

// SectorPerformance returns realtime sector performance
func (s *Service) SectorPerformance(ctx context.Context) ([]contracts.SectorPerformance, error) {
	return getOrFetch(ctx, s, cache.SectorPerformanceKey, cache.SectorPerformance, s.source.FetchSectorPerformance)
}

// MarketMovers returns top gainers, losers and most active tickers
func (s *Service) MarketMovers(ctx context.Context) (*contracts.MarketMovers, error) {
	return getOrFetch(ctx, s, cache.MarketMoversKey, cache.TopLists, s.source.FetchMarketMovers)
}

// StockScore returns the composite score for a symbol
func (s *Service) StockScore(ctx context.Context, rawSymbol string) (*score.Result, error) {
	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	var cached score.Result
	if s.lookup(ctx, cache.StockScoreKey(symbol), cache.DailyStock, &cached) {
		return &cached, nil
	}

	series, err := s.DailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return s.scoreAndStore(ctx, symbol, series)
}

// RefreshSectorPerformance fetches sector performance and overwrites the cache
func (s *Service) RefreshSectorPerformance(ctx context.Context) ([]contracts.SectorPerformance, error) {
	sectors, err := s.source.FetchSectorPerformance(ctx)
	if err != nil {
		return nil, err
	}
	s.save(ctx, cache.SectorPerformanceKey, cache.SectorPerformance, sectors)
	return sectors, nil
}

// RefreshMarketMovers fetches market movers and overwrites the cache
func (s *Service) RefreshMarketMovers(ctx context.Context) (*contracts.MarketMovers, error) {
	movers, err := s.source.FetchMarketMovers(ctx)
	if err != nil {
		return nil, err
	}
	s.save(ctx, cache.MarketMoversKey, cache.TopLists, movers)
	return movers, nil
}

// RefreshScore fetches a fresh series, rescores it and overwrites both
// cache entries
func (s *Service) RefreshScore(ctx context.Context, rawSymbol string) (*score.Result, error) {
	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	series, err := s.source.FetchDailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.save(ctx, cache.DailyStockKey(symbol), cache.DailyStock, series)

	return s.scoreAndStore(ctx, symbol, series)
}

func (s *Service) scoreAndStore(ctx context.Context, symbol string, series []contracts.DailyBar) (*score.Result, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	result, err := score.Compute(series)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"bars":   len(series),
		}).Warn("Insufficient daily data for stock score calculation")
		return nil, fmt.Errorf("score %s: %w", symbol, err)
	}

	s.save(ctx, cache.StockScoreKey(symbol), cache.DailyStock, result)

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"score":  result.Score,
	}).Debug("Calculated stock score")

	return result, nil
}

// lookup reads key into dest. Cache failures are logged and read as a miss.
func (s *Service) lookup(ctx context.Context, key string, cat cache.Category, dest interface{}) bool {
	found, err := s.store.Get(ctx, key, cat, dest)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

// save writes one entry. Cache failures are logged and otherwise ignored.
func (s *Service) save(ctx context.Context, key string, cat cache.Category, value interface{}) {
	if err := s.store.Set(ctx, key, cat, value); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

// getOrFetch serves key from the cache or from one upstream fetch shared by
// every concurrent miss. The fetch is detached from the caller that started
// it so a disconnect does not fail the others; each caller still returns on
// its own ctx.
func getOrFetch[T any](ctx context.Context, s *Service, key string, cat cache.Category, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	var cached T
	if s.lookup(ctx, key, cat, &cached) {
		return cached, nil
	}

	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.save(fetchCtx, key, cat, value)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			s.logger.WithField("key", key).Debug("Shared in-flight upstream fetch")
		}
		return res.Val.(T), nil
	}
}
