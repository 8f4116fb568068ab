package refdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ovchar/divspread/internal/contracts"
	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/internal/filtercfg"
	"github.com/ovchar/divspread/internal/storage"
	"github.com/ovchar/divspread/pkg/logger"
)

// InstrumentLister is the slice of the provider the pipeline consumes
type InstrumentLister interface {
	Shares(ctx context.Context) ([]invest.Share, error)
	Futures(ctx context.Context) ([]invest.Future, error)
}

// Pipeline ingests raw instrument listings, applies the eligibility rules
// and keeps the dataset store fresh. It is the only writer of the store
// and the only place provider quantity types are flattened.
type Pipeline struct {
	lister InstrumentLister
	store  storage.Store
	rules  *filtercfg.Config
	logger *logger.Logger
	now    func() time.Time
}

// NewPipeline creates a reference data pipeline
func NewPipeline(lister InstrumentLister, store storage.Store, rules *filtercfg.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		lister: lister,
		store:  store,
		rules:  rules,
		logger: log,
		now:    time.Now,
	}
}

// EnsureFresh refreshes the dataset from the provider unless the stored
// copy is still within its TTL. On provider failure the stale copy, if
// any, is left untouched.
func (p *Pipeline) EnsureFresh(ctx context.Context, dataset string) error {
	fresh, err := p.store.Fresh(ctx, dataset)
	if err != nil {
		return fmt.Errorf("check freshness of %s: %w", dataset, err)
	}
	if fresh {
		return nil
	}

	switch dataset {
	case DatasetStocks:
		return p.refreshStocks(ctx)
	case DatasetFutures:
		return p.refreshFutures(ctx)
	default:
		return fmt.Errorf("unknown dataset %q", dataset)
	}
}

// Refresh re-pulls the dataset from the provider regardless of the
// freshness of the stored copy
func (p *Pipeline) Refresh(ctx context.Context, dataset string) error {
	switch dataset {
	case DatasetStocks:
		return p.refreshStocks(ctx)
	case DatasetFutures:
		return p.refreshFutures(ctx)
	default:
		return fmt.Errorf("unknown dataset %q", dataset)
	}
}

// Stocks returns the cached stock records, refreshing first if stale
func (p *Pipeline) Stocks(ctx context.Context) ([]contracts.StockRecord, error) {
	if err := p.EnsureFresh(ctx, DatasetStocks); err != nil {
		return nil, err
	}

	rows, err := p.store.Get(ctx, DatasetStocks)
	if err != nil {
		return nil, err
	}
	return decodeStocks(rows)
}

// Futures returns the cached future records, refreshing first if stale
func (p *Pipeline) Futures(ctx context.Context) ([]contracts.FutureRecord, error) {
	if err := p.EnsureFresh(ctx, DatasetFutures); err != nil {
		return nil, err
	}

	rows, err := p.store.Get(ctx, DatasetFutures)
	if err != nil {
		return nil, err
	}
	return decodeFutures(rows)
}

func (p *Pipeline) refreshStocks(ctx context.Context) error {
	shares, err := p.lister.Shares(ctx)
	if err != nil {
		return err
	}

	records := make([]contracts.StockRecord, 0, len(shares))
	for _, s := range shares {
		if !p.exchangeEligible(s.RealExchange, s.Ticker) {
			continue
		}
		records = append(records, contracts.StockRecord{
			Ticker: s.Ticker,
			Name:   s.Name,
			UID:    s.UID,
		})
	}

	p.logger.WithFields(map[string]interface{}{
		"dataset": DatasetStocks,
		"raw":     len(shares),
		"kept":    len(records),
	}).Info("Refreshed reference data")

	return p.store.Put(ctx, DatasetStocks, encodeStocks(records))
}

func (p *Pipeline) refreshFutures(ctx context.Context) error {
	futures, err := p.lister.Futures(ctx)
	if err != nil {
		return err
	}

	today := p.now()
	records := make([]contracts.FutureRecord, 0, len(futures))
	for _, f := range futures {
		if !p.futureEligible(f, today) {
			continue
		}
		// The only place nested provider quantities are flattened
		records = append(records, contracts.FutureRecord{
			Ticker:         f.Ticker,
			BasicAsset:     f.BasicAsset,
			LotSize:        f.BasicAssetSize.ToDecimal(),
			ExpirationDate: f.ExpirationDate,
			UID:            f.UID,
			MarginOnBuy:    f.InitialMarginOnBuy.ToDecimal(),
			MarginOnSell:   f.InitialMarginOnSell.ToDecimal(),
		})
	}

	p.logger.WithFields(map[string]interface{}{
		"dataset": DatasetFutures,
		"raw":     len(futures),
		"kept":    len(records),
	}).Info("Refreshed reference data")

	return p.store.Put(ctx, DatasetFutures, encodeFutures(records))
}

// exchangeEligible passes instruments from the primary exchange, plus the
// allow-listed index tickers regardless of their exchange tag
func (p *Pipeline) exchangeEligible(realExchange, ticker string) bool {
	if realExchange == p.rules.PrimaryExchange {
		return true
	}
	for _, t := range p.rules.IndexTickers {
		if ticker == t {
			return true
		}
	}
	return false
}

// futureEligible applies the three independent futures filters: exchange
// (or allow-list), expiration guard interval, and asset type
func (p *Pipeline) futureEligible(f invest.Future, today time.Time) bool {
	if !p.exchangeEligible(f.RealExchange, f.Ticker) {
		return false
	}

	// Strictly more than guard_days out; a contract expiring exactly at
	// the boundary is excluded
	guard := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, p.rules.GuardDays)
	exp := f.ExpirationDate
	expDate := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC)
	if !expDate.After(guard) {
		return false
	}

	switch f.AssetType {
	case invest.AssetTypeSecurity:
		return true
	case invest.AssetTypeIndex:
		return strings.Contains(f.Name, p.rules.MiniMarker)
	default:
		return false
	}
}
