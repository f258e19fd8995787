package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPOracle fetches prices from a coingecko-shaped simple-price endpoint:
// GET {base}?ids={asset}&vs_currencies=usd -> {"{asset}":{"usd":1.0}}
type HTTPOracle struct {
	baseURL    string
	assetIDs   map[string]string // token address -> oracle asset id
	httpClient *http.Client
}

// NewHTTPOracle creates an oracle client. assetIDs maps token contract
// addresses to the oracle's asset identifiers; unmapped tokens fail lookup.
func NewHTTPOracle(baseURL string, assetIDs map[string]string, timeout time.Duration) *HTTPOracle {
	return &HTTPOracle{
		baseURL:  baseURL,
		assetIDs: assetIDs,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetPrice looks up the USD price for a token address.
func (o *HTTPOracle) GetPrice(ctx context.Context, tokenAddress string) (float64, error) {
	assetID, ok := o.assetIDs[tokenAddress]
	if !ok {
		return 0, fmt.Errorf("no asset id mapped for token %s", tokenAddress)
	}

	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}

	price, ok := payload[assetID]["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd price for asset %s", assetID)
	}
	return price, nil
}
