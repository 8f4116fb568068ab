package valuation

import (
	"context"
	"fmt"

	"github.com/ovchar/divspread/internal/contracts"
	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/internal/filtercfg"
	"github.com/ovchar/divspread/internal/quotes"
	"github.com/ovchar/divspread/pkg/logger"
)

// IndexLister is the slice of the provider the index viewer consumes
type IndexLister interface {
	Indicatives(ctx context.Context) ([]invest.Indicative, error)
}

// IndexViewer reads through the allow-listed broad-market indices with
// their last prices. No discounting, no dividend math.
type IndexViewer struct {
	lister  IndexLister
	fetcher *quotes.Fetcher
	rules   *filtercfg.Config
	logger  *logger.Logger
}

// NewIndexViewer creates an index viewer
func NewIndexViewer(lister IndexLister, fetcher *quotes.Fetcher, rules *filtercfg.Config, log *logger.Logger) *IndexViewer {
	return &IndexViewer{
		lister:  lister,
		fetcher: fetcher,
		rules:   rules,
		logger:  log,
	}
}

// Run lists the designated index instruments and annotates them with
// last-trade prices from one batched call
func (v *IndexViewer) Run(ctx context.Context) ([]contracts.IndexQuote, error) {
	indicatives, err := v.lister.Indicatives(ctx)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(v.rules.IndexTickers))
	for _, t := range v.rules.IndexTickers {
		allowed[t] = true
	}

	var quotes []contracts.IndexQuote
	var uids []string
	for _, ind := range indicatives {
		if !allowed[ind.Ticker] {
			continue
		}
		quotes = append(quotes, contracts.IndexQuote{
			Ticker: ind.Ticker,
			Name:   ind.Name,
			UID:    ind.UID,
		})
		uids = append(uids, ind.UID)
	}

	if len(quotes) == 0 {
		return nil, nil
	}

	prices, err := v.fetcher.LastPrices(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("fetch index prices: %w", err)
	}

	for i := range quotes {
		quotes[i].Price = prices[i]
	}

	v.logger.WithField("count", len(quotes)).Info("Index valuation completed")
	return quotes, nil
}
