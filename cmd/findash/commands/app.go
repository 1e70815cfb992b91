package commands

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/findash/backend/internal/api"
	"github.com/wonny/findash/backend/internal/cache"
	"github.com/wonny/findash/backend/internal/external/alphavantage"
	"github.com/wonny/findash/backend/internal/finance"
	"github.com/wonny/findash/backend/pkg/config"
	"github.com/wonny/findash/backend/pkg/httputil"
	"github.com/wonny/findash/backend/pkg/logger"
	"github.com/wonny/findash/backend/pkg/redis"
)

const redisPrefix = "findash"

// upstreamFetchTimeout leaves headroom under the server write timeout so a
// request queued on the upstream limiter fails before its response is dropped
const upstreamFetchTimeout = api.WriteTimeout - 5*time.Second

// app bundles the dependencies every command needs
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	redis   *redis.Client
	store   cache.Store
	memory  *cache.MemoryStore
	service *finance.Service
}

// newApp loads config and wires the upstream client, cache and service
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{cfg: cfg, log: log, redis: redisClient}

	httpClient := httputil.New(cfg, log).WithLimiter(a.limiter())
	upstream := alphavantage.NewClient(httpClient, cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL, log)

	if cfg.Cache.Backend == "redis" {
		a.store = cache.NewRedisStore(redis.NewCache(redisClient, redisPrefix))
	} else {
		a.memory = cache.NewMemoryStore(log)
		a.store = a.memory
	}

	a.service = finance.NewService(upstream, a.store, log, finance.WithFetchTimeout(upstreamFetchTimeout))

	log.WithFields(map[string]interface{}{
		"cache":         cfg.Cache.Backend,
		"redis":         redisClient.Enabled(),
		"requests_pm":   cfg.AlphaVantage.RequestsPerMinute,
		"upstream_base": cfg.AlphaVantage.BaseURL,
	}).Debug("Application wired")

	return a, nil
}

// limiter shares the upstream quota across instances through Redis when it
// is available, otherwise throttles this process only
func (a *app) limiter() httputil.Limiter {
	perMinute := a.cfg.AlphaVantage.RequestsPerMinute

	if a.redis.Enabled() {
		return redis.NewRateLimiter(a.redis, redisPrefix).Bind(redis.AlphaVantageRateLimit(perMinute))
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
