package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wonny/findash/backend/internal/contracts"
)

const realtimePerformanceKey = "Rank A: Realtime Performance"

type moverRow struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// FetchSectorPerformance fetches realtime sector performance, best first
func (c *Client) FetchSectorPerformance(ctx context.Context) ([]contracts.SectorPerformance, error) {
	payload, err := c.query(ctx, "SECTOR", nil)
	if err != nil {
		return nil, err
	}

	sectors, err := normalizeSectors(payload)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(sectors)).Debug("Fetched sector performance")
	return sectors, nil
}

func normalizeSectors(payload map[string]json.RawMessage) ([]contracts.SectorPerformance, error) {
	sectors := []contracts.SectorPerformance{}

	raw, ok := payload[realtimePerformanceKey]
	if !ok {
		return sectors, nil
	}

	var rank map[string]string
	if err := json.Unmarshal(raw, &rank); err != nil {
		return nil, fmt.Errorf("decode %q failed: %w", realtimePerformanceKey, err)
	}

	for sector, pct := range rank {
		perf, err := parsePercent(pct)
		if err != nil {
			continue
		}
		sectors = append(sectors, contracts.SectorPerformance{Sector: sector, Performance: perf})
	}

	sort.Slice(sectors, func(i, j int) bool {
		if sectors[i].Performance != sectors[j].Performance {
			return sectors[i].Performance > sectors[j].Performance
		}
		return sectors[i].Sector < sectors[j].Sector
	})

	return sectors, nil
}

// FetchMarketMovers fetches the top gainers, top losers and most actively
// traded tickers
func (c *Client) FetchMarketMovers(ctx context.Context) (*contracts.MarketMovers, error) {
	payload, err := c.query(ctx, "TOP_GAINERS_LOSERS", nil)
	if err != nil {
		return nil, err
	}

	movers, err := normalizeMovers(payload)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"gainers": len(movers.TopGainers),
		"losers":  len(movers.TopLosers),
		"active":  len(movers.MostActivelyTraded),
	}).Debug("Fetched market movers")
	return movers, nil
}

func normalizeMovers(payload map[string]json.RawMessage) (*contracts.MarketMovers, error) {
	movers := contracts.NewMarketMovers()

	lists := []struct {
		key string
		dst *[]contracts.Mover
	}{
		{"top_gainers", &movers.TopGainers},
		{"top_losers", &movers.TopLosers},
		{"most_actively_traded", &movers.MostActivelyTraded},
	}

	for _, l := range lists {
		raw, ok := payload[l.key]
		if !ok {
			continue
		}

		var rows []moverRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode %q failed: %w", l.key, err)
		}

		for _, row := range rows {
			m, err := parseMover(row)
			if err != nil {
				continue
			}
			*l.dst = append(*l.dst, m)
		}
	}

	return movers, nil
}

func parseMover(row moverRow) (contracts.Mover, error) {
	m := contracts.Mover{Ticker: row.Ticker}

	var err error
	if m.Price, err = parseFloat(row.Price); err != nil {
		return m, err
	}
	if m.ChangeAmount, err = parseFloat(row.ChangeAmount); err != nil {
		return m, err
	}
	if m.ChangePercentage, err = parsePercent(row.ChangePercentage); err != nil {
		return m, err
	}
	if m.Volume, err = parseInt(row.Volume); err != nil {
		return m, err
	}
	return m, nil
}
