package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/findash/backend/internal/score"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score SYMBOL...",
	Short: "Compute the composite score for one or more symbols",
	Long: `Fetch each symbol's daily series and print its composite score
with the per-factor breakdown.

Example:
  go run ./cmd/findash score IBM
  go run ./cmd/findash score IBM MSFT --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

var (
	scoreJSON bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print results as JSON")
}

// scoredSymbol is one line of score output
type scoredSymbol struct {
	Symbol string        `json:"symbol"`
	Result *score.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]scoredSymbol, 0, len(args))
	failed := 0
	for _, symbol := range args {
		result, err := a.service.StockScore(ctx, symbol)
		if err != nil {
			failed++
			results = append(results, scoredSymbol{Symbol: symbol, Error: err.Error()})
			continue
		}
		results = append(results, scoredSymbol{Symbol: symbol, Result: result})
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	} else {
		renderScores(out, results)
	}

	if failed == len(args) {
		return fmt.Errorf("no symbol could be scored")
	}
	return nil
}

func renderScores(w io.Writer, results []scoredSymbol) {
	columns := []string{"SYMBOL", "SCORE", "VOLATILITY", "GROWTH", "AVG VOLUME"}
	widths := []int{8, 5, 14, 14, 16}

	PrintHeader(w, "Stock Scores")
	PrintTableHeader(w, columns, widths)

	for _, r := range results {
		if r.Result == nil {
			continue
		}
		f := r.Result.Factors
		PrintTableRow(w, []string{
			r.Symbol,
			strconv.Itoa(r.Result.Score),
			factorCell(f.Volatility),
			factorCell(f.GrowthRate),
			factorCell(f.AverageVolume),
		}, widths)
	}

	for _, r := range results {
		if r.Error != "" {
			PrintError(w, fmt.Sprintf("%s: %s", r.Symbol, r.Error))
		}
	}
}

func factorCell(f score.Factor) string {
	return fmt.Sprintf("%s (%d)", f.Value, f.Points)
}
