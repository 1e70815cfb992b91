package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/findash/backend/internal/contracts"
)

// moversCmd represents the movers command
var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Print today's top gainers, losers and most active tickers",
	Long: `Fetch the market movers lists and print the first N of each.

Example:
  go run ./cmd/findash movers
  go run ./cmd/findash movers --limit 10`,
	RunE: runMovers,
}

var (
	moversLimit int
)

func init() {
	rootCmd.AddCommand(moversCmd)

	moversCmd.Flags().IntVar(&moversLimit, "limit", 5, "rows per list")
}

func runMovers(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	movers, err := a.service.MarketMovers(ctx)
	if err != nil {
		return fmt.Errorf("fetch market movers: %w", err)
	}

	renderMovers(cmd.OutOrStdout(), movers, moversLimit)
	return nil
}

func renderMovers(w io.Writer, movers *contracts.MarketMovers, limit int) {
	sections := []struct {
		title string
		rows  []contracts.Mover
	}{
		{"Top Gainers", movers.TopGainers},
		{"Top Losers", movers.TopLosers},
		{"Most Actively Traded", movers.MostActivelyTraded},
	}

	columns := []string{"TICKER", "PRICE", "CHANGE", "CHANGE %", "VOLUME"}
	widths := []int{8, 10, 10, 10, 14}

	for _, s := range sections {
		PrintHeader(w, s.title)

		if len(s.rows) == 0 {
			PrintWarning(w, "no data")
			continue
		}

		PrintTableHeader(w, columns, widths)
		for i, m := range s.rows {
			if limit > 0 && i >= limit {
				break
			}
			PrintTableRow(w, []string{
				m.Ticker,
				strconv.FormatFloat(m.Price, 'f', 2, 64),
				strconv.FormatFloat(m.ChangeAmount, 'f', 2, 64),
				strconv.FormatFloat(m.ChangePercentage, 'f', 2, 64) + "%",
				strconv.FormatInt(m.Volume, 10),
			}, widths)
		}
	}
}
