package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/findash/backend/internal/contracts"
	"github.com/wonny/findash/backend/pkg/config"
	"github.com/wonny/findash/backend/pkg/logger"
	"github.com/wonny/findash/backend/pkg/redis"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	s := NewMemoryStore(logger.NewNop())
	s.now = clock.Now
	return s, clock
}

func TestCategoryTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, DailyStock.TTL())
	assert.Equal(t, 15*time.Minute, TopLists.TTL())
	assert.Equal(t, time.Hour, SectorPerformance.TTL())
	assert.Panics(t, func() { Category(42).TTL() })
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "daily_stock", DailyStock.String())
	assert.Equal(t, "top_lists", TopLists.String())
	assert.Equal(t, "sector_performance", SectorPerformance.String())
	assert.Equal(t, "category(42)", Category(42).String())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "daily_stock_IBM", DailyStockKey("IBM"))
	assert.Equal(t, "stock_score_IBM", StockScoreKey("IBM"))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	want := []contracts.SectorPerformance{{Sector: "Energy", Performance: 1.25}}
	require.NoError(t, s.Set(ctx, SectorPerformanceKey, SectorPerformance, want))

	var got []contracts.SectorPerformance
	found, err := s.Get(ctx, SectorPerformanceKey, SectorPerformance, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestMemoryStore_Miss(t *testing.T) {
	s, _ := newTestStore()

	var got string
	found, err := s.Get(context.Background(), "absent", DailyStock, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_ExpiresLazily(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", DailyStock, 1))

	clock.Advance(DailyStock.TTL() - time.Second)
	var v int
	found, err := s.Get(ctx, "k", DailyStock, &v)
	require.NoError(t, err)
	assert.True(t, found)

	clock.Advance(time.Second)
	found, err = s.Get(ctx, "k", DailyStock, &v)
	require.NoError(t, err)
	assert.False(t, found, "an entry exactly TTL old is stale")
	assert.Equal(t, 0, s.Len(), "expired entry evicted on read")
}

func TestMemoryStore_TTLComesFromLookupCategory(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", SectorPerformance, "v"))
	clock.Advance(10 * time.Minute)

	var v string
	found, err := s.Get(ctx, "k", SectorPerformance, &v)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.Get(ctx, "k", DailyStock, &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_SetRefreshesTimestamp(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", DailyStock, "old"))
	clock.Advance(4 * time.Minute)
	require.NoError(t, s.Set(ctx, "k", DailyStock, "new"))
	clock.Advance(4 * time.Minute)

	var v string
	found, err := s.Get(ctx, "k", DailyStock, &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "new", v)
}

func TestMemoryStore_Sweep(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, DailyStockKey("IBM"), DailyStock, 1))
	require.NoError(t, s.Set(ctx, MarketMoversKey, TopLists, 2))
	require.NoError(t, s.Set(ctx, SectorPerformanceKey, SectorPerformance, 3))

	clock.Advance(20 * time.Minute)
	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, SectorPerformanceKey))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_UnmarshalMismatch(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", DailyStock, "text"))

	var n int
	_, err := s.Get(ctx, "k", DailyStock, &n)
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, key, DailyStock, j)
				var v int
				_, _ = s.Get(ctx, key, DailyStock, &v)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, s.Len())
}

func TestRedisStore_DisabledIsAlwaysMiss(t *testing.T) {
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	var store Store = NewRedisStore(redis.NewCache(client, "findash"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", TopLists, "v"))

	var v string
	found, err := store.Get(ctx, "k", TopLists, &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, store.Delete(ctx, "k"))
}
