package invest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enum string values from the Invest API contract
const (
	RealExchangeMOEX    = "REAL_EXCHANGE_MOEX"
	AssetTypeSecurity   = "TYPE_SECURITY"
	AssetTypeIndex      = "TYPE_INDEX"
	TradingStatusNormal = "SECURITY_TRADING_STATUS_NORMAL_TRADING"
)

// Quotation is the API's split decimal: integer units plus nanos.
// The gRPC gateway serializes int64 units as a JSON string.
type Quotation struct {
	Units int64 `json:"units,string"`
	Nano  int32 `json:"nano"`
}

// ToDecimal converts the quotation to an exact decimal
func (q Quotation) ToDecimal() decimal.Decimal {
	return decimal.New(q.Units, 0).Add(decimal.New(int64(q.Nano), -9))
}

// MoneyValue is a Quotation with a currency tag
type MoneyValue struct {
	Currency string `json:"currency"`
	Units    int64  `json:"units,string"`
	Nano     int32  `json:"nano"`
}

// ToDecimal converts the money value to an exact decimal, dropping currency
func (m MoneyValue) ToDecimal() decimal.Decimal {
	return decimal.New(m.Units, 0).Add(decimal.New(int64(m.Nano), -9))
}

// Share is one share instrument as listed by the API
type Share struct {
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	UID          string `json:"uid"`
	RealExchange string `json:"realExchange"`
}

// Future is one futures contract as listed by the API
type Future struct {
	Ticker              string     `json:"ticker"`
	Name                string     `json:"name"`
	UID                 string     `json:"uid"`
	BasicAsset          string     `json:"basicAsset"`
	BasicAssetSize      Quotation  `json:"basicAssetSize"`
	ExpirationDate      time.Time  `json:"expirationDate"`
	RealExchange        string     `json:"realExchange"`
	AssetType           string     `json:"assetType"`
	InitialMarginOnBuy  MoneyValue `json:"initialMarginOnBuy"`
	InitialMarginOnSell MoneyValue `json:"initialMarginOnSell"`
	TradingStatus       string     `json:"tradingStatus"`
}

// Indicative is a non-tradable index instrument
type Indicative struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	UID    string `json:"uid"`
}

// OrderBookEntry is one price level of an order book
type OrderBookEntry struct {
	Price    Quotation `json:"price"`
	Quantity int64     `json:"quantity,string"`
}

// OrderBook is a snapshot of outstanding bids and asks
type OrderBook struct {
	InstrumentUID string           `json:"instrumentUid"`
	Depth         int              `json:"depth"`
	Bids          []OrderBookEntry `json:"bids"`
	Asks          []OrderBookEntry `json:"asks"`
}

// LastPrice is one batched last trade price
type LastPrice struct {
	InstrumentUID string    `json:"instrumentUid"`
	Price         Quotation `json:"price"`
	Time          time.Time `json:"time"`
}
