package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovchar/divspread/internal/contracts"
)

// valuateCmd represents the valuate command
var valuateCmd = &cobra.Command{
	Use:   "valuate [ticker]",
	Short: "Price futures against the underlying stock",
	Long: `Prices every eligible futures contract of a stock and backs out the
implied dividend, grossed up for the dividend tax.

Example:
  go run ./cmd/divspread valuate SBER
  go run ./cmd/divspread valuate --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValuate,
}

var valuateAll bool

func init() {
	rootCmd.AddCommand(valuateCmd)

	valuateCmd.Flags().BoolVar(&valuateAll, "all", false, "valuate every ticker that has futures")
}

func runValuate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !valuateAll && len(args) == 0 {
		return fmt.Errorf("a ticker is required unless --all is set")
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if valuateAll {
		results, err := a.engine.ValuateAll(ctx)
		if err != nil {
			return err
		}
		printResults(results)
		return nil
	}

	results, stock, err := a.engine.Valuate(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("=== %s (%s) ===\n", stock.Ticker, stock.Name)
	printResults(results)
	return nil
}

func printResults(results []contracts.ValuationResult) {
	if len(results) == 0 {
		fmt.Println("No contracts to price")
		return
	}

	fmt.Printf("%-8s %-8s %-12s %5s %10s %8s %10s %10s %10s %10s\n",
		"Future", "Asset", "Expires", "Days", "Dividend", "Div %", "CurSpread", "FairSpread", "BuyMargin", "SellMargin")

	for _, r := range results {
		fmt.Printf("%-8s %-8s %-12s %5d %10s %7s%% %10s %10s %10d %10d\n",
			r.Ticker,
			r.BasicAsset,
			r.ExpirationDate.Format("2006-01-02"),
			r.Days,
			r.Dividend.StringFixed(2),
			r.DivPercent.StringFixed(2),
			r.CurrentSpread.StringFixed(2),
			r.FairSpread.StringFixed(2),
			r.BuyMargin,
			r.SellMargin,
		)
	}

	fmt.Printf("\n✅ %d contract(s) priced\n", len(results))
}
