package cache

import (
	"context"
	"fmt"
	"time"
)

// Category selects how long a cached payload stays fresh
type Category int

const (
	DailyStock Category = iota
	TopLists
	SectorPerformance
)

// TTL returns the freshness window of the category
func (c Category) TTL() time.Duration {
	switch c {
	case DailyStock:
		return 5 * time.Minute
	case TopLists:
		return 15 * time.Minute
	case SectorPerformance:
		return 60 * time.Minute
	default:
		panic(fmt.Sprintf("cache: unknown category %d", int(c)))
	}
}

func (c Category) String() string {
	switch c {
	case DailyStock:
		return "daily_stock"
	case TopLists:
		return "top_lists"
	case SectorPerformance:
		return "sector_performance"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Store is a key/value cache whose entries expire per Category.
// Values round-trip through JSON, so dest must be a pointer to a type
// compatible with what was stored.
// ⭐ SSOT: 캐시 접근은 이 인터페이스를 통해서만
type Store interface {
	Get(ctx context.Context, key string, cat Category, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, cat Category, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// DailyStockKey is the key of a symbol's normalized daily series
func DailyStockKey(symbol string) string {
	return "daily_stock_" + symbol
}

// StockScoreKey is the key of a symbol's score
func StockScoreKey(symbol string) string {
	return "stock_score_" + symbol
}

const (
	SectorPerformanceKey = "sector_performance"
	MarketMoversKey      = "market_movers"
)
