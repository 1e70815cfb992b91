package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "findash",
	Short: "findash - market dashboard backend",
	Long: `findash Unified CLI

Backend for the financial analytics dashboard: daily series, sector
performance, market movers and a composite stock score, served from a
TTL cache in front of Alpha Vantage.

Usage:
  go run ./cmd/findash [command]

Examples:
  go run ./cmd/findash api
  go run ./cmd/findash score IBM MSFT
  go run ./cmd/findash movers --limit 5`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
