package valuation

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/internal/filtercfg"
	"github.com/ovchar/divspread/internal/quotes"
	"github.com/ovchar/divspread/pkg/logger"
)

func newTestIndexViewer(provider *fakeProvider) *IndexViewer {
	log := logger.NewWriter(io.Discard)
	fetcher := quotes.NewFetcher(provider, log, 1, true)
	return NewIndexViewer(provider, fetcher, filtercfg.Default(), log)
}

func TestIndexViewerFiltersAndPrices(t *testing.T) {
	provider := &fakeProvider{
		indicatives: []invest.Indicative{
			{Ticker: "IMOEX", Name: "Индекс МосБиржи", UID: "uid-imoex"},
			{Ticker: "USDRUB", Name: "Доллар США", UID: "uid-usd"},
			{Ticker: "RTSI", Name: "Индекс РТС", UID: "uid-rtsi"},
		},
		lastPrices: map[string]decimal.Decimal{
			"uid-imoex": dec("3215.4"),
			"uid-rtsi":  dec("1130.2"),
			"uid-usd":   dec("92.5"),
		},
	}
	v := newTestIndexViewer(provider)

	got, err := v.Run(context.Background())
	require.NoError(t, err)

	// Only the designated indices survive, currency fixings do not
	require.Len(t, got, 2)
	assert.Equal(t, "IMOEX", got[0].Ticker)
	assert.True(t, got[0].Price.Equal(dec("3215.4")))
	assert.Equal(t, "RTSI", got[1].Ticker)
	assert.True(t, got[1].Price.Equal(dec("1130.2")))

	// One batched last-price request for the whole list
	assert.Equal(t, 1, provider.batchCalls)
}

func TestIndexViewerNoAllowedIndices(t *testing.T) {
	provider := &fakeProvider{
		indicatives: []invest.Indicative{
			{Ticker: "USDRUB", Name: "Доллар США", UID: "uid-usd"},
		},
	}
	v := newTestIndexViewer(provider)

	got, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, provider.batchCalls)
}
