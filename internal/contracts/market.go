package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format shared with the dashboard
const DateLayout = "2006-01-02"

// Date is a trading day serialized as "YYYY-MM-DD"
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DailyBar is one trading day's OHLCV observation
// ⭐ SSOT: upstream → score/API 일봉 데이터 전달
type DailyBar struct {
	Date   Date    `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// SectorPerformance is one sector's realtime performance in percent
type SectorPerformance struct {
	Sector      string  `json:"sector"`
	Performance float64 `json:"performance"`
}

// Mover is one entry of a top gainers/losers/most active list
type Mover struct {
	Ticker           string  `json:"ticker"`
	Price            float64 `json:"price"`
	ChangeAmount     float64 `json:"changeAmount"`
	ChangePercentage float64 `json:"changePercentage"`
	Volume           int64   `json:"volume"`
}

// MarketMovers groups the three ranked lists
type MarketMovers struct {
	TopGainers         []Mover `json:"topGainers"`
	TopLosers          []Mover `json:"topLosers"`
	MostActivelyTraded []Mover `json:"mostActivelyTraded"`
}

// NewMarketMovers returns movers with non-nil lists so they encode as []
func NewMarketMovers() *MarketMovers {
	return &MarketMovers{
		TopGainers:         []Mover{},
		TopLosers:          []Mover{},
		MostActivelyTraded: []Mover{},
	}
}
