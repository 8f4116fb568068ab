package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovchar/divspread/internal/contracts"
	"github.com/ovchar/divspread/internal/external/invest"
	"github.com/ovchar/divspread/internal/filtercfg"
	"github.com/ovchar/divspread/internal/quotes"
	"github.com/ovchar/divspread/internal/refdata"
	"github.com/ovchar/divspread/internal/storage"
	"github.com/ovchar/divspread/internal/valuation"
	"github.com/ovchar/divspread/pkg/config"
	"github.com/ovchar/divspread/pkg/logger"
)

type fakeProvider struct {
	shares      []invest.Share
	futures     []invest.Future
	indicatives []invest.Indicative
	lastPrices  map[string]decimal.Decimal
	listErr     error
	listerCalls int
}

func (p *fakeProvider) Shares(ctx context.Context) ([]invest.Share, error) {
	p.listerCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.shares, nil
}

func (p *fakeProvider) Futures(ctx context.Context) ([]invest.Future, error) {
	p.listerCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.futures, nil
}

func (p *fakeProvider) Indicatives(ctx context.Context) ([]invest.Indicative, error) {
	return p.indicatives, nil
}

func (p *fakeProvider) IsTradingNow(ctx context.Context, uid string) (bool, error) {
	return false, nil
}

func (p *fakeProvider) LastPrices(ctx context.Context, uids []string) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(uids))
	for i, uid := range uids {
		prices[i] = p.lastPrices[uid]
	}
	return prices, nil
}

func (p *fakeProvider) GetOrderBook(ctx context.Context, uid string, depth int) (*invest.OrderBook, error) {
	return &invest.OrderBook{}, nil
}

func newTestHandler(t *testing.T, provider *fakeProvider) *ValuationHandler {
	t.Helper()
	log := logger.NewWriter(io.Discard)
	rules := filtercfg.Default()
	pipeline := refdata.NewPipeline(provider, storage.NewMemoryStore(time.Hour), rules, log)
	fetcher := quotes.NewFetcher(provider, log, 1, true)

	params, err := valuation.NewParams(config.ValuationConfig{DiscountRate: 16, TaxFactor: "0.87"})
	require.NoError(t, err)

	engine := valuation.NewEngine(pipeline, fetcher, params, log)
	viewer := valuation.NewIndexViewer(provider, fetcher, rules, log)

	return NewValuationHandler(engine, viewer, pipeline, log)
}

func newTestRouter(h *ValuationHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/tickers", h.GetTickers).Methods("GET")
	r.HandleFunc("/api/valuation", h.GetAllValuations).Methods("GET")
	r.HandleFunc("/api/valuation/{ticker}", h.GetValuation).Methods("GET")
	r.HandleFunc("/api/indexes", h.GetIndexes).Methods("GET")
	r.HandleFunc("/api/refresh", h.Refresh).Methods("POST")
	return r
}

func defaultProvider() *fakeProvider {
	exp := time.Now().UTC().AddDate(0, 0, 45)
	return &fakeProvider{
		shares: []invest.Share{
			{Ticker: "SBER", Name: "Сбербанк", UID: "uid-sber", RealExchange: invest.RealExchangeMOEX},
		},
		futures: []invest.Future{
			{
				Ticker:         "SRM6",
				Name:           "SRM6",
				UID:            "uid-srm6",
				BasicAsset:     "SBER",
				BasicAssetSize: invest.Quotation{Units: 100},
				ExpirationDate: exp,
				RealExchange:   invest.RealExchangeMOEX,
				AssetType:      invest.AssetTypeSecurity,
			},
		},
		indicatives: []invest.Indicative{
			{Ticker: "IMOEX", Name: "Индекс МосБиржи", UID: "uid-imoex"},
		},
		lastPrices: map[string]decimal.Decimal{
			"uid-sber":  decimal.NewFromInt(300),
			"uid-srm6":  decimal.NewFromInt(30500),
			"uid-imoex": decimal.NewFromFloat(3215.4),
		},
	}
}

func TestGetValuation(t *testing.T) {
	router := newTestRouter(newTestHandler(t, defaultProvider()))

	req := httptest.NewRequest("GET", "/api/valuation/SBER", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ValuationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SBER", resp.Ticker)
	assert.Equal(t, "Сбербанк", resp.Name)
	require.Len(t, resp.Contracts, 1)
	assert.Equal(t, "SRM6", resp.Contracts[0].Ticker)
}

func TestGetValuationUnknownTicker(t *testing.T) {
	router := newTestRouter(newTestHandler(t, defaultProvider()))

	req := httptest.NewRequest("GET", "/api/valuation/ZZZZ", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "not found")
}

func TestGetValuationProviderFailure(t *testing.T) {
	provider := defaultProvider()
	provider.listErr = contracts.NewProviderError("list shares", assert.AnError)
	router := newTestRouter(newTestHandler(t, provider))

	req := httptest.NewRequest("GET", "/api/valuation/SBER", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetTickers(t *testing.T) {
	router := newTestRouter(newTestHandler(t, defaultProvider()))

	req := httptest.NewRequest("GET", "/api/tickers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TickersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"SBER"}, resp.Tickers)
	assert.Equal(t, 1, resp.Count)
}

func TestGetAllValuations(t *testing.T) {
	router := newTestRouter(newTestHandler(t, defaultProvider()))

	req := httptest.NewRequest("GET", "/api/valuation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AllValuationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestGetIndexes(t *testing.T) {
	router := newTestRouter(newTestHandler(t, defaultProvider()))

	req := httptest.NewRequest("GET", "/api/indexes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp IndexesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "IMOEX", resp.Indexes[0].Ticker)
}

func TestRefreshForcesRepull(t *testing.T) {
	provider := defaultProvider()
	h := newTestHandler(t, provider)
	router := newTestRouter(h)

	// Warm the cache
	warm := httptest.NewRequest("GET", "/api/tickers", nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)
	callsAfterWarm := provider.listerCalls
	require.Equal(t, 2, callsAfterWarm)

	// A fresh cache would make reads no-ops, refresh must bypass it
	req := httptest.NewRequest("POST", "/api/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, callsAfterWarm+2, provider.listerCalls)

	var resp RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"stocks", "futures"}, resp.Datasets)
}
