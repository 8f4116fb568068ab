package invest

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ovchar/divspread/internal/contracts"
)

const marketDataService = "MarketDataService"

type lastPricesRequest struct {
	InstrumentID []string `json:"instrumentId"`
}

type lastPricesResponse struct {
	LastPrices []LastPrice `json:"lastPrices"`
}

type orderBookRequest struct {
	InstrumentID string `json:"instrumentId"`
	Depth        int    `json:"depth"`
}

// LastPrices fetches last trade prices for all uids in one batched call.
// The result preserves input order, one price per uid.
func (c *Client) LastPrices(ctx context.Context, uids []string) ([]decimal.Decimal, error) {
	var resp lastPricesResponse
	req := lastPricesRequest{InstrumentID: uids}
	if err := c.call(ctx, marketDataService, "GetLastPrices", req, &resp); err != nil {
		return nil, contracts.NewProviderError("GetLastPrices", err)
	}

	// The API answers in request order, but re-key by uid so a gap in the
	// response is detected instead of shifting every price after it.
	byUID := make(map[string]decimal.Decimal, len(resp.LastPrices))
	for _, lp := range resp.LastPrices {
		byUID[lp.InstrumentUID] = lp.Price.ToDecimal()
	}

	prices := make([]decimal.Decimal, len(uids))
	for i, uid := range uids {
		price, ok := byUID[uid]
		if !ok {
			return nil, contracts.NewProviderError("GetLastPrices",
				fmt.Errorf("no last price for instrument %s in response", uid))
		}
		prices[i] = price
	}
	return prices, nil
}

// GetOrderBook fetches a top-of-book snapshot for one instrument
func (c *Client) GetOrderBook(ctx context.Context, uid string, depth int) (*OrderBook, error) {
	var resp OrderBook
	req := orderBookRequest{InstrumentID: uid, Depth: depth}
	if err := c.call(ctx, marketDataService, "GetOrderBook", req, &resp); err != nil {
		return nil, contracts.NewProviderError("GetOrderBook", err)
	}

	return &resp, nil
}
