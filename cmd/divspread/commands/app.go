package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/internal/filtercfg"
	"github.com/ovchar/divspread/internal/quotes"
	"github.com/ovchar/divspread/internal/refdata"
	"github.com/ovchar/divspread/internal/storage"
	"github.com/ovchar/divspread/internal/valuation"
	"github.com/ovchar/divspread/pkg/config"
	"github.com/ovchar/divspread/pkg/httputil"
	"github.com/ovchar/divspread/pkg/logger"
)

// app holds the fully wired application graph shared by all commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    storage.Store
	client   *invest.Client
	pipeline *refdata.Pipeline
	fetcher  *quotes.Fetcher
	engine   *valuation.Engine
	viewer   *valuation.IndexViewer
}

// buildApp loads configuration and wires every component
func buildApp(ctx context.Context) (*app, error) {
	// 1. Load config
	if configFile != "" {
		if err := godotenv.Overload(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Flag overrides
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	if cfg.Invest.Token == "" {
		return nil, fmt.Errorf("INVEST_TOKEN is required")
	}

	// 3. Create the provider client
	httpClient := httputil.New(log).WithRateLimit(cfg.Invest.RateLimit)
	client := invest.NewClient(cfg.Invest, httpClient, log)

	// 4. Create the dataset store
	store, err := storage.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// 5. Load the instrument filter rules
	rules, err := filtercfg.Load(cfg.Cache.FiltersFile)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("load filters: %w", err)
	}

	// 6. Wire the pipeline, fetcher and valuation engine
	pipeline := refdata.NewPipeline(client, store, rules, log)
	fetcher := quotes.NewFetcher(client, log, cfg.Invest.OrderBookDepth, cfg.Invest.ForceLastPrice)

	params, err := valuation.NewParams(cfg.Valuation)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("valuation params: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		client:   client,
		pipeline: pipeline,
		fetcher:  fetcher,
		engine:   valuation.NewEngine(pipeline, fetcher, params, log),
		viewer:   valuation.NewIndexViewer(client, fetcher, rules, log),
	}, nil
}

// Close releases backend connections held by the store
func (a *app) Close() {
	closeStore(a.store)
}

func closeStore(store storage.Store) {
	switch s := store.(type) {
	case *storage.PostgresStore:
		s.Close()
	case *storage.RedisStore:
		_ = s.Close()
	}
}
