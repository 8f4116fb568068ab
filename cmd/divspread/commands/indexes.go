package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// indexesCmd represents the indexes command
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Show last prices for the designated market indices",
	RunE:  runIndexes,
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

func runIndexes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	quotes, err := a.viewer.Run(ctx)
	if err != nil {
		return err
	}

	if len(quotes) == 0 {
		fmt.Println("No indices configured")
		return nil
	}

	fmt.Printf("%-8s %-30s %12s\n", "Ticker", "Name", "Price")
	for _, q := range quotes {
		fmt.Printf("%-8s %-30s %12s\n", q.Ticker, q.Name, q.Price.StringFixed(2))
	}
	return nil
}
