package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/findash/backend/internal/api"
	"github.com/wonny/findash/backend/internal/contracts"
	"github.com/wonny/findash/backend/internal/score"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	widths := []int{4, 6}

	PrintTableHeader(&buf, []string{"A", "B"}, widths)
	PrintTableRow(&buf, []string{"x", "yy"}, widths)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "A     B", lines[0])
	assert.Equal(t, strings.Repeat("─", 12), lines[1])
	assert.Equal(t, "x     yy", lines[2])
}

func TestRenderScores(t *testing.T) {
	var buf bytes.Buffer

	renderScores(&buf, []scoredSymbol{
		{
			Symbol: "IBM",
			Result: &score.Result{
				Score: 13,
				Factors: score.Factors{
					Volatility:    score.Factor{Value: "0.0074", Points: 5},
					GrowthRate:    score.Factor{Value: "0.0348", Points: 5},
					AverageVolume: score.Factor{Value: "2000000", Points: 3},
				},
			},
		},
		{Symbol: "IPO", Error: "insufficient data to calculate stock score"},
	})

	out := buf.String()
	assert.Contains(t, out, "Stock Scores")
	assert.Contains(t, out, "IBM       13     0.0074 (5)")
	assert.Contains(t, out, "2000000 (3)")
	assert.Contains(t, out, "❌ IPO: insufficient data")
}

func TestRenderMovers(t *testing.T) {
	movers := contracts.NewMarketMovers()
	movers.TopGainers = []contracts.Mover{
		{Ticker: "ABCD", Price: 2.5, ChangeAmount: 1.25, ChangePercentage: 100, Volume: 1200000},
		{Ticker: "EFGH", Price: 3, ChangeAmount: 1, ChangePercentage: 50, Volume: 10},
	}

	var buf bytes.Buffer
	renderMovers(&buf, movers, 1)

	out := buf.String()
	assert.Contains(t, out, "Top Gainers")
	assert.Contains(t, out, "ABCD")
	assert.Contains(t, out, "100.00%")
	assert.NotContains(t, out, "EFGH")
	assert.Equal(t, 2, strings.Count(out, "no data"))
}

func TestCommandsRegistered(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"api", "score", "movers"})
	assert.Error(t, scoreCmd.Args(scoreCmd, nil))
}

func TestUpstreamFetchTimeoutFitsWriteTimeout(t *testing.T) {
	assert.Greater(t, upstreamFetchTimeout, time.Duration(0))
	assert.Less(t, upstreamFetchTimeout, api.WriteTimeout)
}
