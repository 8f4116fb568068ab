package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovchar/divspread/internal/api"
	"github.com/ovchar/divspread/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the HTTP API server.

Endpoints:
  GET  /health                  - Health check
  GET  /api/tickers             - Tickers with eligible futures
  GET  /api/valuation           - Valuate the whole universe
  GET  /api/valuation/{ticker}  - Valuate one ticker's futures
  GET  /api/indexes             - Index last prices
  POST /api/refresh             - Force a reference data re-pull

Example:
  go run ./cmd/divspread api
  go run ./cmd/divspread api --port 8087`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	handler := handlers.NewValuationHandler(a.engine, a.viewer, a.pipeline, a.log)
	router := api.NewRouter(handler, a.log)
	server := api.New(a.cfg, a.log, router)

	// Run the server until interrupted
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	fmt.Println("\n✅ Server stopped")
	return nil
}
