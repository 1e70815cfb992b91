package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/findash/backend/internal/contracts"
	"github.com/wonny/findash/backend/pkg/config"
	"github.com/wonny/findash/backend/pkg/httputil"
	"github.com/wonny/findash/backend/pkg/logger"
)

const dailyFixture = `{
  "Meta Data": {"1. Information": "Daily Prices", "2. Symbol": "IBM"},
  "Time Series (Daily)": {
    "2024-01-04": {"1. open": "161.0", "2. high": "161.5", "3. low": "160.2", "4. close": "160.9", "5. volume": "3500000"},
    "2024-01-02": {"1. open": "162.8", "2. high": "163.3", "3. low": "160.9", "4. close": "161.3", "5. volume": "3800000"},
    "2024-01-03": {"1. open": "161.0", "2. high": "161.7", "3. low": "160.0", "4. close": "160.1", "5. volume": "4100000"},
    "not-a-date": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}
  }
}`

const sectorFixture = `{
  "Meta Data": {"Information": "US Sector Performance (realtime & historical)"},
  "Rank A: Realtime Performance": {
    "Energy": "-0.52%",
    "Information Technology": "1.37%",
    "Utilities": "0.05%"
  }
}`

const moversFixture = `{
  "metadata": "Top gainers, losers, and most actively traded US tickers",
  "top_gainers": [
    {"ticker": "ABCD", "price": "2.5", "change_amount": "1.25", "change_percentage": "100.0%", "volume": "1200000"}
  ],
  "top_losers": [
    {"ticker": "WXYZ", "price": "0.8", "change_amount": "-0.7", "change_percentage": "-46.6667%", "volume": "900000"},
    {"ticker": "BAD", "price": "n/a", "change_amount": "0", "change_percentage": "0%", "volume": "0"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	return NewClient(httpClient, "test-key", server.URL+"/", logger.NewNop())
}

func fixtureFor(t *testing.T, function, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, function, r.URL.Query().Get("function"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetchDailySeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "IBM", r.URL.Query().Get("symbol"))
		fixtureFor(t, "TIME_SERIES_DAILY", dailyFixture)(w, r)
	})

	bars, err := client.FetchDailySeries(context.Background(), "IBM")
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, "2024-01-02", bars[0].Date.String())
	assert.Equal(t, "2024-01-03", bars[1].Date.String())
	assert.Equal(t, "2024-01-04", bars[2].Date.String())

	assert.Equal(t, contracts.DailyBar{
		Date:   contracts.NewDate(2024, time.January, 2),
		Open:   162.8,
		High:   163.3,
		Low:    160.9,
		Close:  161.3,
		Volume: 3800000,
	}, bars[0])
}

func TestFetchDailySeries_MissingSeriesIsEmpty(t *testing.T) {
	client := newTestClient(t, fixtureFor(t, "TIME_SERIES_DAILY", `{"Meta Data": {}}`))

	bars, err := client.FetchDailySeries(context.Background(), "IBM")
	require.NoError(t, err)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "invalid symbol",
			body:    `{"Error Message": "Invalid API call. Please retry or visit the documentation."}`,
			wantMsg: "Invalid API call. Please retry or visit the documentation.",
		},
		{
			name:    "rate limit note",
			body:    `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
			wantMsg: "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute.",
		},
		{
			name:    "information",
			body:    `{"Information": "We have detected your API key as demo."}`,
			wantMsg: "We have detected your API key as demo.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, fixtureFor(t, "TIME_SERIES_DAILY", tt.body))

			_, err := client.FetchDailySeries(context.Background(), "NOPE")
			require.Error(t, err)

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantMsg, perr.Message)
			assert.Equal(t, "TIME_SERIES_DAILY", perr.Function)
			assert.Contains(t, err.Error(), "Alpha Vantage API")
		})
	}
}

func TestNon200IsNotProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchSectorPerformance(context.Background())
	require.Error(t, err)

	var perr *ProviderError
	assert.False(t, errors.As(err, &perr))
}

func TestMalformedBody(t *testing.T) {
	client := newTestClient(t, fixtureFor(t, "SECTOR", `<html>`))

	_, err := client.FetchSectorPerformance(context.Background())
	assert.Error(t, err)
}

func TestFetchSectorPerformance(t *testing.T) {
	client := newTestClient(t, fixtureFor(t, "SECTOR", sectorFixture))

	sectors, err := client.FetchSectorPerformance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []contracts.SectorPerformance{
		{Sector: "Information Technology", Performance: 1.37},
		{Sector: "Utilities", Performance: 0.05},
		{Sector: "Energy", Performance: -0.52},
	}, sectors)
}

func TestFetchMarketMovers(t *testing.T) {
	client := newTestClient(t, fixtureFor(t, "TOP_GAINERS_LOSERS", moversFixture))

	movers, err := client.FetchMarketMovers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []contracts.Mover{
		{Ticker: "ABCD", Price: 2.5, ChangeAmount: 1.25, ChangePercentage: 100, Volume: 1200000},
	}, movers.TopGainers)
	assert.Equal(t, []contracts.Mover{
		{Ticker: "WXYZ", Price: 0.8, ChangeAmount: -0.7, ChangePercentage: -46.6667, Volume: 900000},
	}, movers.TopLosers)
	assert.NotNil(t, movers.MostActivelyTraded)
	assert.Empty(t, movers.MostActivelyTraded)
}

func TestParseHelpers(t *testing.T) {
	n, err := parseInt("1200.0")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), n)

	_, err = parseInt("abc")
	assert.Error(t, err)

	p, err := parsePercent(" 2.5% ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, p)
}
