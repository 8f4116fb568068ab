package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovchar/divspread/internal/refdata"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a reference data re-pull",
	Long: `Re-pulls the stock and futures reference datasets from the provider,
bypassing the cache TTL.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	for _, dataset := range []string{refdata.DatasetStocks, refdata.DatasetFutures} {
		if err := a.pipeline.Refresh(ctx, dataset); err != nil {
			return fmt.Errorf("refresh %s: %w", dataset, err)
		}
		fmt.Printf("  - %s refreshed\n", dataset)
	}

	fmt.Printf("\n✅ Reference data refreshed in %.2fs\n", time.Since(start).Seconds())
	return nil
}
