package quotes

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/pkg/logger"
)

// Side selects which side of the book prices an execution
type Side int

const (
	// SideBuy prices a buy-side execution off the best ask
	SideBuy Side = iota
	// SideSell prices a sell-side execution off the best bid
	SideSell
)

// MarketDataAPI is the slice of the provider the fetcher consumes
type MarketDataAPI interface {
	IsTradingNow(ctx context.Context, uid string) (bool, error)
	LastPrices(ctx context.Context, uids []string) ([]decimal.Decimal, error)
	GetOrderBook(ctx context.Context, uid string, depth int) (*invest.OrderBook, error)
}

// Fetcher retrieves live prices for a batch of instruments. The quoting
// strategy is chosen once per request: a single batched last-trade call
// when the market is closed (or the override forces it), per-instrument
// top-of-book lookups issued concurrently when it is open.
type Fetcher struct {
	api            MarketDataAPI
	logger         *logger.Logger
	depth          int
	forceLastPrice bool
}

// NewFetcher creates a quote fetcher
func NewFetcher(api MarketDataAPI, log *logger.Logger, depth int, forceLastPrice bool) *Fetcher {
	if depth < 1 {
		depth = 1
	}
	return &Fetcher{
		api:            api,
		logger:         log,
		depth:          depth,
		forceLastPrice: forceLastPrice,
	}
}

// Prices fetches one price per uid, preserving input order. statusProxyUID
// identifies the representative instrument whose trading status decides
// the mode for the whole batch.
func (f *Fetcher) Prices(ctx context.Context, uids []string, side Side, statusProxyUID string) ([]decimal.Decimal, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	open := false
	if !f.forceLastPrice {
		var err error
		open, err = f.api.IsTradingNow(ctx, statusProxyUID)
		if err != nil {
			return nil, err
		}
	}

	if !open {
		f.logger.WithFields(map[string]interface{}{
			"count":  len(uids),
			"forced": f.forceLastPrice,
		}).Debug("Quoting from last trade prices")
		return f.api.LastPrices(ctx, uids)
	}

	return f.orderBookPrices(ctx, uids, side)
}

// LastPrices always takes the batched last-trade path, regardless of
// market state
func (f *Fetcher) LastPrices(ctx context.Context, uids []string) ([]decimal.Decimal, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	return f.api.LastPrices(ctx, uids)
}

// orderBookPrices fans out one top-of-book request per instrument and
// joins them all. The join surfaces the first failure in input order;
// already-issued sibling requests are not cancelled.
func (f *Fetcher) orderBookPrices(ctx context.Context, uids []string, side Side) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(uids))
	errs := make([]error, len(uids))

	var wg sync.WaitGroup
	for i, uid := range uids {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			prices[i], errs[i] = f.orderBookPrice(ctx, uid, side)
		}(i, uid)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return prices, nil
}

// orderBookPrice takes the best bid or ask from a top-of-book snapshot.
// An empty side of the book is a hard failure for the instrument.
func (f *Fetcher) orderBookPrice(ctx context.Context, uid string, side Side) (decimal.Decimal, error) {
	ob, err := f.api.GetOrderBook(ctx, uid, f.depth)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var entries []invest.OrderBookEntry
	if side == SideSell {
		entries = ob.Bids
	} else {
		entries = ob.Asks
	}

	if len(entries) == 0 {
		return decimal.Decimal{}, fmt.Errorf("empty order book for %s", uid)
	}

	return entries[0].Price.ToDecimal(), nil
}
