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
	Use:   "screener",
	Short: "Stock screener and backtest configuration service",
	Long: `Stock screener and backtest configuration service

Rule-based screening over market snapshots, backtest request building
and quota-gated execution against the remote backtest engine.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener api
  go run ./cmd/screener filters
  go run ./cmd/screener screen --rows rows.json --rules rules.yaml
  go run ./cmd/screener build-config --input editor.yaml
  go run ./cmd/screener backtest --input editor.yaml --user u-1`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
