package refdata

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/internal/filtercfg"
	"github.com/ovchar/divspread/internal/storage"
	"github.com/ovchar/divspread/pkg/logger"
)

type fakeLister struct {
	shares       []invest.Share
	futures      []invest.Future
	sharesCalls  int
	futuresCalls int
	err          error
}

func (f *fakeLister) Shares(ctx context.Context) ([]invest.Share, error) {
	f.sharesCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.shares, nil
}

func (f *fakeLister) Futures(ctx context.Context) ([]invest.Future, error) {
	f.futuresCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.futures, nil
}

var testToday = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestPipeline(lister *fakeLister, ttl time.Duration) (*Pipeline, *storage.MemoryStore) {
	store := storage.NewMemoryStore(ttl)
	p := NewPipeline(lister, store, filtercfg.Default(), logger.NewWriter(io.Discard))
	p.now = func() time.Time { return testToday }
	return p, store
}

func expiring(days int) time.Time {
	return testToday.AddDate(0, 0, days)
}

func securityFuture(ticker, asset string, exp time.Time) invest.Future {
	return invest.Future{
		Ticker:              ticker,
		Name:                ticker,
		UID:                 "uid-" + ticker,
		BasicAsset:          asset,
		BasicAssetSize:      invest.Quotation{Units: 100},
		ExpirationDate:      exp,
		RealExchange:        invest.RealExchangeMOEX,
		AssetType:           invest.AssetTypeSecurity,
		InitialMarginOnBuy:  invest.MoneyValue{Units: 5000},
		InitialMarginOnSell: invest.MoneyValue{Units: 5200},
	}
}

func TestGuardIntervalBoundary(t *testing.T) {
	lister := &fakeLister{futures: []invest.Future{
		securityFuture("SRH6", "SBER", expiring(3)), // exactly at guard boundary
		securityFuture("SRM6", "SBER", expiring(4)), // one day past
	}}
	p, _ := newTestPipeline(lister, time.Hour)

	futures, err := p.Futures(context.Background())
	require.NoError(t, err)

	require.Len(t, futures, 1)
	assert.Equal(t, "SRM6", futures[0].Ticker)
}

func TestIndexFiltersAreIndependent(t *testing.T) {
	mini := securityFuture("IMOEX", "IMOEX", expiring(30))
	mini.AssetType = invest.AssetTypeIndex
	mini.Name = "Индекс МосБиржи (мини)"

	fullSize := securityFuture("RTSI", "RTSI", expiring(30))
	fullSize.AssetType = invest.AssetTypeIndex
	fullSize.Name = "Индекс РТС"

	lister := &fakeLister{futures: []invest.Future{mini, fullSize}}
	p, _ := newTestPipeline(lister, time.Hour)

	futures, err := p.Futures(context.Background())
	require.NoError(t, err)

	// The allow-list satisfies the exchange filter only; the asset-type
	// filter still requires the mini marker, so the full-size index is out.
	require.Len(t, futures, 1)
	assert.Equal(t, "IMOEX", futures[0].Ticker)
}

func TestAllowListedIndexKeptFromOtherExchange(t *testing.T) {
	idx := securityFuture("IMOEX", "IMOEX", expiring(30))
	idx.AssetType = invest.AssetTypeIndex
	idx.Name = "Индекс МосБиржи (мини)"
	idx.RealExchange = "REAL_EXCHANGE_RTS"

	other := securityFuture("BRN6", "BR", expiring(30))
	other.RealExchange = "REAL_EXCHANGE_RTS"

	lister := &fakeLister{futures: []invest.Future{idx, other}}
	p, _ := newTestPipeline(lister, time.Hour)

	futures, err := p.Futures(context.Background())
	require.NoError(t, err)

	require.Len(t, futures, 1)
	assert.Equal(t, "IMOEX", futures[0].Ticker)
}

func TestFuturesProjectionFlattensQuantities(t *testing.T) {
	f := securityFuture("SRM6", "SBER", expiring(40))
	f.BasicAssetSize = invest.Quotation{Units: 100}
	f.InitialMarginOnBuy = invest.MoneyValue{Units: 5123, Nano: 400000000}
	f.InitialMarginOnSell = invest.MoneyValue{Units: 5200}

	lister := &fakeLister{futures: []invest.Future{f}}
	p, _ := newTestPipeline(lister, time.Hour)

	futures, err := p.Futures(context.Background())
	require.NoError(t, err)
	require.Len(t, futures, 1)

	got := futures[0]
	assert.Equal(t, "100", got.LotSize.String())
	assert.Equal(t, "5123.4", got.MarginOnBuy.String())
	assert.Equal(t, "5200", got.MarginOnSell.String())
	assert.Equal(t, "SBER", got.BasicAsset)
	assert.Equal(t, "uid-SRM6", got.UID)
	assert.Equal(t, expiring(40).Format("2006-01-02"), got.ExpirationDate.Format("2006-01-02"))
}

func TestStocksFilterAndProjection(t *testing.T) {
	lister := &fakeLister{shares: []invest.Share{
		{Ticker: "SBER", Name: "Sberbank", UID: "uid-sber", RealExchange: invest.RealExchangeMOEX},
		{Ticker: "AAPL", Name: "Apple", UID: "uid-aapl", RealExchange: "REAL_EXCHANGE_UNSPECIFIED"},
	}}
	p, _ := newTestPipeline(lister, time.Hour)

	stocks, err := p.Stocks(context.Background())
	require.NoError(t, err)

	require.Len(t, stocks, 1)
	assert.Equal(t, "SBER", stocks[0].Ticker)
	assert.Equal(t, "Sberbank", stocks[0].Name)
	assert.Equal(t, "uid-sber", stocks[0].UID)
}

func TestEnsureFreshIsNoOpWhileFresh(t *testing.T) {
	lister := &fakeLister{futures: []invest.Future{
		securityFuture("SRM6", "SBER", expiring(40)),
	}}
	p, _ := newTestPipeline(lister, time.Hour)
	ctx := context.Background()

	require.NoError(t, p.EnsureFresh(ctx, DatasetFutures))
	require.NoError(t, p.EnsureFresh(ctx, DatasetFutures))

	assert.Equal(t, 1, lister.futuresCalls, "fresh cache must not trigger a provider call")
}

func TestProviderFailureLeavesStaleCache(t *testing.T) {
	lister := &fakeLister{futures: []invest.Future{
		securityFuture("SRM6", "SBER", expiring(40)),
	}}
	// TTL zero: everything written is immediately stale
	p, store := newTestPipeline(lister, 0)
	ctx := context.Background()

	require.NoError(t, p.EnsureFresh(ctx, DatasetFutures))

	lister.err = errors.New("connection reset")
	err := p.EnsureFresh(ctx, DatasetFutures)
	require.Error(t, err)

	// The stale rows must still be there, untouched
	rows, err := store.Get(ctx, DatasetFutures)
	require.NoError(t, err)
	assert.Len(t, rows, 2) // header + one record
}

func TestEnsureFreshUnknownDataset(t *testing.T) {
	p, _ := newTestPipeline(&fakeLister{}, time.Hour)

	err := p.EnsureFresh(context.Background(), "bonds")
	assert.Error(t, err)
}

func TestRecordsRoundTrip(t *testing.T) {
	lister := &fakeLister{futures: []invest.Future{
		securityFuture("SRM6", "SBER", expiring(40)),
		securityFuture("GZM6", "GAZP", expiring(70)),
	}}
	p, store := newTestPipeline(lister, time.Hour)
	ctx := context.Background()

	first, err := p.Futures(ctx)
	require.NoError(t, err)

	// Decode straight from the store and compare
	rows, err := store.Get(ctx, DatasetFutures)
	require.NoError(t, err)
	second, err := decodeFutures(rows)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Ticker, second[i].Ticker)
		assert.True(t, first[i].LotSize.Equal(second[i].LotSize))
		assert.True(t, first[i].MarginOnSell.Equal(second[i].MarginOnSell))
	}
}
