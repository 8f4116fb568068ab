package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "divspread",
	Short: "Implied dividend and futures spread valuation for MOEX equities",
	Long: `divspread prices MOEX single-stock futures against their underlying
to back out the dividend the market has priced in.

Usage:
  go run ./cmd/divspread [command]

Examples:
  go run ./cmd/divspread valuate SBER
  go run ./cmd/divspread valuate --all
  go run ./cmd/divspread tickers
  go run ./cmd/divspread api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
