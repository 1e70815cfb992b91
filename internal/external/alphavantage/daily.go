package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/findash/backend/internal/contracts"
)

const dailySeriesKey = "Time Series (Daily)"

type dailyRow struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// FetchDailySeries fetches a symbol's daily series, oldest first
func (c *Client) FetchDailySeries(ctx context.Context, symbol string) ([]contracts.DailyBar, error) {
	payload, err := c.query(ctx, "TIME_SERIES_DAILY", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	bars, skipped, err := normalizeDaily(payload)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"count":   len(bars),
		"skipped": skipped,
	}).Debug("Fetched daily series")

	return bars, nil
}

// normalizeDaily turns the provider's date-keyed object into bars sorted
// ascending by date. A missing series yields an empty slice; rows that do
// not parse are dropped and counted.
func normalizeDaily(payload map[string]json.RawMessage) ([]contracts.DailyBar, int, error) {
	raw, ok := payload[dailySeriesKey]
	if !ok {
		return []contracts.DailyBar{}, 0, nil
	}

	var rows map[string]dailyRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode %q failed: %w", dailySeriesKey, err)
	}

	bars := make([]contracts.DailyBar, 0, len(rows))
	skipped := 0
	for date, row := range rows {
		bar, err := parseDailyRow(date, row)
		if err != nil {
			skipped++
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date.Time)
	})

	return bars, skipped, nil
}

func parseDailyRow(date string, row dailyRow) (contracts.DailyBar, error) {
	d, err := contracts.ParseDate(date)
	if err != nil {
		return contracts.DailyBar{}, err
	}

	var bar contracts.DailyBar
	bar.Date = d

	fields := []struct {
		raw string
		dst *float64
	}{
		{row.Open, &bar.Open},
		{row.High, &bar.High},
		{row.Low, &bar.Low},
		{row.Close, &bar.Close},
	}
	for _, f := range fields {
		if *f.dst, err = parseFloat(f.raw); err != nil {
			return contracts.DailyBar{}, err
		}
	}

	if bar.Volume, err = parseInt(row.Volume); err != nil {
		return contracts.DailyBar{}, err
	}

	return bar, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseInt accepts integral values written as decimals, e.g. "1200.0"
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// parsePercent parses "1.2345%" into 1.2345
func parsePercent(s string) (float64, error) {
	return parseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}
