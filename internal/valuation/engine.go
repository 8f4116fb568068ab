package valuation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovchar/divspread/internal/contracts"
	"github.com/ovchar/divspread/internal/quotes"
	"github.com/ovchar/divspread/internal/refdata"
	"github.com/ovchar/divspread/pkg/config"
	"github.com/ovchar/divspread/pkg/logger"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysInYear  = decimal.NewFromInt(365)
	percentBase = daysInYear.Mul(hundred) // 36500
)

// Params are the injected valuation model parameters
type Params struct {
	// DiscountRate is the annual discount rate in percent
	DiscountRate int
	// TaxFactor divides the raw dividend to gross it up to a pre-tax
	// equivalent. A fixed constant, not derived from the discount rate.
	TaxFactor decimal.Decimal
}

// NewParams builds Params from config
func NewParams(cfg config.ValuationConfig) (Params, error) {
	taxFactor, err := decimal.NewFromString(cfg.TaxFactor)
	if err != nil {
		return Params{}, fmt.Errorf("bad tax factor %q: %w", cfg.TaxFactor, err)
	}
	if taxFactor.Sign() <= 0 {
		return Params{}, fmt.Errorf("tax factor must be positive, got %s", taxFactor)
	}

	return Params{
		DiscountRate: cfg.DiscountRate,
		TaxFactor:    taxFactor,
	}, nil
}

// dailyRate is the daily discrete-compounding discount rate:
// annual percent / 365 / 100
func (p Params) dailyRate() decimal.Decimal {
	return decimal.NewFromInt(int64(p.DiscountRate)).Div(percentBase)
}

// Engine derives the implied dividend and fair spread pricing for every
// futures contract on a stock from the live stock/future price gap.
type Engine struct {
	pipeline *refdata.Pipeline
	fetcher  *quotes.Fetcher
	params   Params
	logger   *logger.Logger
	now      func() time.Time
}

// NewEngine creates a valuation engine
func NewEngine(pipeline *refdata.Pipeline, fetcher *quotes.Fetcher, params Params, log *logger.Logger) *Engine {
	return &Engine{
		pipeline: pipeline,
		fetcher:  fetcher,
		params:   params,
		logger:   log,
		now:      time.Now,
	}
}

// Valuate prices every eligible futures contract on ticker, ordered by
// expiration date ascending, and returns them with the stock row used
func (e *Engine) Valuate(ctx context.Context, ticker string) ([]contracts.ValuationResult, contracts.StockRecord, error) {
	ticker = strings.ToUpper(ticker)

	stock, futures, err := e.loadReference(ctx, ticker)
	if err != nil {
		return nil, contracts.StockRecord{}, err
	}

	// The earliest future is the market-state proxy for the whole request
	proxyUID := futures[0].UID

	stockPrices, err := e.fetcher.Prices(ctx, []string{stock.UID}, quotes.SideBuy, proxyUID)
	if err != nil {
		return nil, contracts.StockRecord{}, fmt.Errorf("fetch stock price: %w", err)
	}
	stockPrice := stockPrices[0]

	// A zero or negative stock price cannot anchor the model and would
	// divide the percentage terms by zero
	if stockPrice.Sign() <= 0 {
		return nil, contracts.StockRecord{}, contracts.NewValidationError("no current price for ticker %s", ticker)
	}

	uids := make([]string, len(futures))
	for i, f := range futures {
		uids[i] = f.UID
	}
	futurePrices, err := e.fetcher.Prices(ctx, uids, quotes.SideSell, proxyUID)
	if err != nil {
		return nil, contracts.StockRecord{}, fmt.Errorf("fetch future prices: %w", err)
	}

	now := e.now()
	results := make([]contracts.ValuationResult, len(futures))
	for i, f := range futures {
		results[i] = e.valuateOne(f, futurePrices[i], stockPrice, now)
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"futures": len(results),
	}).Info("Valuation completed")

	return results, stock, nil
}

// loadReference resolves the stock row and its futures from the cache,
// refreshing both datasets first. Futures come back sorted by expiration,
// cache order preserved within a date.
func (e *Engine) loadReference(ctx context.Context, ticker string) (contracts.StockRecord, []contracts.FutureRecord, error) {
	stocks, err := e.pipeline.Stocks(ctx)
	if err != nil {
		return contracts.StockRecord{}, nil, err
	}

	allFutures, err := e.pipeline.Futures(ctx)
	if err != nil {
		return contracts.StockRecord{}, nil, err
	}

	var stock contracts.StockRecord
	found := false
	for _, s := range stocks {
		if s.Ticker == ticker {
			stock = s
			found = true
			break
		}
	}
	if !found {
		return contracts.StockRecord{}, nil, contracts.NewValidationError("ticker %s not found", ticker)
	}

	var futures []contracts.FutureRecord
	for _, f := range allFutures {
		if f.BasicAsset == ticker {
			futures = append(futures, f)
		}
	}
	if len(futures) == 0 {
		return contracts.StockRecord{}, nil, contracts.NewValidationError("no futures for ticker %s", ticker)
	}

	sort.SliceStable(futures, func(i, j int) bool {
		return futures[i].ExpirationDate.Before(futures[j].ExpirationDate)
	})

	return stock, futures, nil
}

// valuateOne runs the discounting model for one contract
func (e *Engine) valuateOne(f contracts.FutureRecord, futurePrice, stockPrice decimal.Decimal, now time.Time) contracts.ValuationResult {
	days := f.DaysToExpiration(now)

	// growth = (1 + dailyRate)^days
	growth := decimal.NewFromInt(1).Add(e.params.dailyRate()).Pow(decimal.NewFromInt(int64(days)))

	presentValue := futurePrice.Div(growth)
	rawDividend := stockPrice.Sub(presentValue.Div(f.LotSize))
	dividend := rawDividend.Div(e.params.TaxFactor)
	divPercent := hundred.Mul(dividend).Div(stockPrice)

	theoreticalPrice := stockPrice.Mul(f.LotSize)
	fairFuturePrice := theoreticalPrice.Mul(growth)
	fairSpread := fairFuturePrice.Sub(theoreticalPrice)
	currentSpread := futurePrice.Sub(theoreticalPrice)

	// Margins truncate toward zero, they are never rounded
	buyMargin := theoreticalPrice.IntPart()
	sellMargin := theoreticalPrice.Add(f.MarginOnSell).IntPart()

	return contracts.ValuationResult{
		Ticker:         f.Ticker,
		BasicAsset:     f.BasicAsset,
		ExpirationDate: f.ExpirationDate,
		Days:           days,
		Dividend:       dividend,
		DivPercent:     divPercent,
		CurrentSpread:  currentSpread,
		FairSpread:     fairSpread,
		BuyMargin:      buyMargin,
		SellMargin:     sellMargin,
	}
}

// ListAvailableTickers returns the sorted set of stock tickers that have
// at least one eligible futures contract. Informational only, no pricing.
func (e *Engine) ListAvailableTickers(ctx context.Context) ([]string, error) {
	stocks, err := e.pipeline.Stocks(ctx)
	if err != nil {
		return nil, err
	}

	futures, err := e.pipeline.Futures(ctx)
	if err != nil {
		return nil, err
	}

	withFutures := make(map[string]bool, len(futures))
	for _, f := range futures {
		withFutures[f.BasicAsset] = true
	}

	seen := make(map[string]bool, len(stocks))
	tickers := make([]string, 0, len(stocks))
	for _, s := range stocks {
		if withFutures[s.Ticker] && !seen[s.Ticker] {
			tickers = append(tickers, s.Ticker)
			seen[s.Ticker] = true
		}
	}

	sort.Strings(tickers)
	return tickers, nil
}

// ValuateAll prices every ticker that has at least one eligible future.
// One combined batched last-price request covers all stocks-with-futures
// plus their futures; instruments whose fetched price is non-positive are
// treated as not currently quotable and discarded.
func (e *Engine) ValuateAll(ctx context.Context) ([]contracts.ValuationResult, error) {
	stocks, err := e.pipeline.Stocks(ctx)
	if err != nil {
		return nil, err
	}

	allFutures, err := e.pipeline.Futures(ctx)
	if err != nil {
		return nil, err
	}

	futuresByAsset := make(map[string][]contracts.FutureRecord)
	for _, f := range allFutures {
		futuresByAsset[f.BasicAsset] = append(futuresByAsset[f.BasicAsset], f)
	}

	type priced struct {
		stock   contracts.StockRecord
		futures []contracts.FutureRecord
	}

	var batch []priced
	var uids []string
	seen := make(map[string]bool, len(stocks))
	for _, s := range stocks {
		futures := futuresByAsset[s.Ticker]
		if len(futures) == 0 || seen[s.Ticker] {
			continue
		}
		seen[s.Ticker] = true

		sort.SliceStable(futures, func(i, j int) bool {
			return futures[i].ExpirationDate.Before(futures[j].ExpirationDate)
		})

		batch = append(batch, priced{stock: s, futures: futures})
		uids = append(uids, s.UID)
		for _, f := range futures {
			uids = append(uids, f.UID)
		}
	}

	if len(batch) == 0 {
		return nil, nil
	}

	sort.Slice(batch, func(i, j int) bool {
		return batch[i].stock.Ticker < batch[j].stock.Ticker
	})

	// One round trip for the whole universe
	prices, err := e.fetcher.LastPrices(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("fetch batch prices: %w", err)
	}

	priceByUID := make(map[string]decimal.Decimal, len(uids))
	for i, uid := range uids {
		priceByUID[uid] = prices[i]
	}

	now := e.now()
	var results []contracts.ValuationResult
	for _, b := range batch {
		stockPrice := priceByUID[b.stock.UID]
		if stockPrice.Sign() <= 0 {
			continue
		}
		for _, f := range b.futures {
			futurePrice := priceByUID[f.UID]
			if futurePrice.Sign() <= 0 {
				continue
			}
			results = append(results, e.valuateOne(f, futurePrice, stockPrice, now))
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"tickers": len(batch),
		"rows":    len(results),
	}).Info("Batch valuation completed")

	return results, nil
}
