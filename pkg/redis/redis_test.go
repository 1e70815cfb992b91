package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/findash/backend/pkg/config"
)

func newDisabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := newDisabledClient(t)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(newDisabledClient(t), "test")
	cfg := AlphaVantageRateLimit(5)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
}

func TestBoundLimiter_Disabled(t *testing.T) {
	bound := NewRateLimiter(newDisabledClient(t), "test").Bind(AlphaVantageRateLimit(5))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, bound.Wait(ctx))
}

func TestAlphaVantageRateLimit(t *testing.T) {
	cfg := AlphaVantageRateLimit(75)

	assert.Equal(t, "alphavantage", cfg.Key)
	assert.Equal(t, 75, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(newDisabledClient(t), "findash")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKey(t *testing.T) {
	cache := NewCache(newDisabledClient(t), "findash")

	assert.Equal(t, "findash:cache:daily_stock_IBM", cache.Key("daily_stock_IBM"))
}
