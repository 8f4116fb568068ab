package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// tickersCmd represents the tickers command
var tickersCmd = &cobra.Command{
	Use:   "tickers",
	Short: "List stocks that have eligible futures contracts",
	RunE:  runTickers,
}

func init() {
	rootCmd.AddCommand(tickersCmd)
}

func runTickers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers, err := a.engine.ListAvailableTickers(ctx)
	if err != nil {
		return err
	}

	for _, ticker := range tickers {
		fmt.Println(ticker)
	}
	fmt.Printf("\n✅ %d ticker(s) available\n", len(tickers))
	return nil
}
