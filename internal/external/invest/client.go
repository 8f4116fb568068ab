package invest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ovchar/divspread/pkg/config"
	"github.com/ovchar/divspread/pkg/httputil"
	"github.com/ovchar/divspread/pkg/logger"
)

const apiPackage = "tinkoff.public.invest.api.contract.v1"

// Client handles communication with the Invest REST API (the gRPC gateway).
// All provider calls go through this client; the retry and rate limit
// policy lives in httputil, not here.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.InvestConfig
}

// NewClient creates a new Invest API client
func NewClient(cfg config.InvestConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// errorResponse is the gateway's error envelope
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call posts a JSON body to one service method and decodes the response
func (c *Client) call(ctx context.Context, service, method string, reqBody, respBody interface{}) error {
	url := fmt.Sprintf("%s/%s.%s/%s", c.cfg.BaseURL, apiPackage, service, method)

	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s failed with status %d: %s", method, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s failed with status %d: %s", method, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	return nil
}
