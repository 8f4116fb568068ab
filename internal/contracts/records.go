package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord is a cached reference row for one share
type StockRecord struct {
	Ticker string
	Name   string
	UID    string
}

// FutureRecord is a cached reference row for one futures contract.
// LotSize and the margin values are flattened from the provider's nested
// quantity types during ingestion; nothing downstream unwraps provider types.
type FutureRecord struct {
	Ticker         string
	BasicAsset     string // underlying stock ticker
	LotSize        decimal.Decimal
	ExpirationDate time.Time
	UID            string
	MarginOnBuy    decimal.Decimal
	MarginOnSell   decimal.Decimal
}

// DaysToExpiration is the calendar-day difference between the expiration
// date and now, with no trading-calendar adjustment.
func (f FutureRecord) DaysToExpiration(now time.Time) int {
	exp := time.Date(f.ExpirationDate.Year(), f.ExpirationDate.Month(), f.ExpirationDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24)
}

// PriceQuote pairs an instrument with its fetched price
type PriceQuote struct {
	UID   string
	Price decimal.Decimal
}

// ValuationResult is one valuation row per futures contract
type ValuationResult struct {
	Ticker         string          `json:"ticker"`
	BasicAsset     string          `json:"basic_asset"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Days           int             `json:"days"`
	Dividend       decimal.Decimal `json:"dividend"`
	DivPercent     decimal.Decimal `json:"div_percent"`
	CurrentSpread  decimal.Decimal `json:"current_spread"`
	FairSpread     decimal.Decimal `json:"fair_spread"`
	BuyMargin      int64           `json:"buy_margin"`
	SellMargin     int64           `json:"sell_margin"`
}

// IndexQuote is an index instrument annotated with its last price
type IndexQuote struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	UID    string          `json:"uid"`
	Price  decimal.Decimal `json:"price"`
}
