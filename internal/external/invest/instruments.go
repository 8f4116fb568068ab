package invest

import (
	"context"

	"github.com/ovchar/divspread/internal/contracts"
)

const instrumentsService = "InstrumentsService"

// instrumentsRequest selects the instrument universe to list
type instrumentsRequest struct {
	InstrumentStatus string `json:"instrumentStatus"`
}

type sharesResponse struct {
	Instruments []Share `json:"instruments"`
}

type futuresResponse struct {
	Instruments []Future `json:"instruments"`
}

type indicativesResponse struct {
	Instruments []Indicative `json:"instruments"`
}

type futureByRequest struct {
	IDType string `json:"idType"`
	ID     string `json:"id"`
}

type futureByResponse struct {
	Instrument Future `json:"instrument"`
}

// Shares lists all share instruments, unfiltered
func (c *Client) Shares(ctx context.Context) ([]Share, error) {
	var resp sharesResponse
	req := instrumentsRequest{InstrumentStatus: "INSTRUMENT_STATUS_BASE"}
	if err := c.call(ctx, instrumentsService, "Shares", req, &resp); err != nil {
		return nil, contracts.NewProviderError("Shares", err)
	}

	c.logger.WithField("count", len(resp.Instruments)).Debug("Listed shares")
	return resp.Instruments, nil
}

// Futures lists all futures contracts, unfiltered
func (c *Client) Futures(ctx context.Context) ([]Future, error) {
	var resp futuresResponse
	req := instrumentsRequest{InstrumentStatus: "INSTRUMENT_STATUS_BASE"}
	if err := c.call(ctx, instrumentsService, "Futures", req, &resp); err != nil {
		return nil, contracts.NewProviderError("Futures", err)
	}

	c.logger.WithField("count", len(resp.Instruments)).Debug("Listed futures")
	return resp.Instruments, nil
}

// Indicatives lists index and other non-tradable instruments
func (c *Client) Indicatives(ctx context.Context) ([]Indicative, error) {
	var resp indicativesResponse
	if err := c.call(ctx, instrumentsService, "Indicatives", struct{}{}, &resp); err != nil {
		return nil, contracts.NewProviderError("Indicatives", err)
	}

	return resp.Instruments, nil
}

// IsTradingNow reports whether the future identified by uid is currently
// in normal continuous trading
func (c *Client) IsTradingNow(ctx context.Context, uid string) (bool, error) {
	var resp futureByResponse
	req := futureByRequest{IDType: "INSTRUMENT_ID_TYPE_UID", ID: uid}
	if err := c.call(ctx, instrumentsService, "FutureBy", req, &resp); err != nil {
		return false, contracts.NewProviderError("FutureBy", err)
	}

	return resp.Instrument.TradingStatus == TradingStatusNormal, nil
}
