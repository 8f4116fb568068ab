package refdata

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovchar/divspread/internal/contracts"
)

// Dataset names as stored
const (
	DatasetStocks  = "stocks"
	DatasetFutures = "futures"
)

const dateLayout = "2006-01-02"

var stockHeader = []string{"ticker", "name", "uid"}

var futureHeader = []string{
	"ticker", "basic_asset", "basic_asset_size", "expiration_date",
	"uid", "initial_margin_on_buy", "initial_margin_on_sell",
}

func encodeStocks(records []contracts.StockRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, stockHeader)
	for _, r := range records {
		rows = append(rows, []string{r.Ticker, r.Name, r.UID})
	}
	return rows
}

func decodeStocks(rows [][]string) ([]contracts.StockRecord, error) {
	if err := checkHeader(rows, stockHeader); err != nil {
		return nil, fmt.Errorf("stocks dataset: %w", err)
	}

	records := make([]contracts.StockRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, contracts.StockRecord{
			Ticker: row[0],
			Name:   row[1],
			UID:    row[2],
		})
	}
	return records, nil
}

func encodeFutures(records []contracts.FutureRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, futureHeader)
	for _, r := range records {
		rows = append(rows, []string{
			r.Ticker,
			r.BasicAsset,
			r.LotSize.String(),
			r.ExpirationDate.Format(dateLayout),
			r.UID,
			r.MarginOnBuy.String(),
			r.MarginOnSell.String(),
		})
	}
	return rows
}

func decodeFutures(rows [][]string) ([]contracts.FutureRecord, error) {
	if err := checkHeader(rows, futureHeader); err != nil {
		return nil, fmt.Errorf("futures dataset: %w", err)
	}

	records := make([]contracts.FutureRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		lot, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("futures dataset row %d: bad lot size %q: %w", i+1, row[2], err)
		}

		exp, err := time.Parse(dateLayout, row[3])
		if err != nil {
			return nil, fmt.Errorf("futures dataset row %d: bad expiration %q: %w", i+1, row[3], err)
		}

		marginBuy, err := decimal.NewFromString(row[5])
		if err != nil {
			return nil, fmt.Errorf("futures dataset row %d: bad buy margin %q: %w", i+1, row[5], err)
		}

		marginSell, err := decimal.NewFromString(row[6])
		if err != nil {
			return nil, fmt.Errorf("futures dataset row %d: bad sell margin %q: %w", i+1, row[6], err)
		}

		records = append(records, contracts.FutureRecord{
			Ticker:         row[0],
			BasicAsset:     row[1],
			LotSize:        lot,
			ExpirationDate: exp,
			UID:            row[4],
			MarginOnBuy:    marginBuy,
			MarginOnSell:   marginSell,
		})
	}
	return records, nil
}

func checkHeader(rows [][]string, want []string) error {
	if len(rows) == 0 {
		return fmt.Errorf("empty dataset")
	}
	got := rows[0]
	if len(got) != len(want) {
		return fmt.Errorf("header has %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("header column %d is %q, want %q", i, got[i], want[i])
		}
	}
	return nil
}
