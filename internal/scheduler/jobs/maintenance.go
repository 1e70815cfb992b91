package jobs

import (
	"context"

	"github.com/wonny/findash/backend/pkg/logger"
)

// Sweeper drops expired cache entries
type Sweeper interface {
	Sweep() int
}

// CacheSweepJob evicts expired entries from the in-memory cache
type CacheSweepJob struct {
	cache  Sweeper
	logger *logger.Logger
}

// NewCacheSweepJob creates a new cache sweep job
func NewCacheSweepJob(cache Sweeper, log *logger.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string {
	return "cache-sweep"
}

// Schedule returns the cron schedule (every minute)
func (j *CacheSweepJob) Schedule() string {
	return "0 * * * * *"
}

// Run executes the cache sweep
func (j *CacheSweepJob) Run(ctx context.Context) error {
	count := j.cache.Sweep()

	if count > 0 {
		j.logger.WithField("removed", count).Debug("Cache sweep completed")
	}

	return nil
}
