package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFXBaseURL serves daily reference rates without an API key
const DefaultFXBaseURL = "https://open.er-api.com"

// FXClient fetches the USD→TWD reference rate used for display alongside
// USD amounts. Failure degrades to the configured fallback rate at the
// caller; it never blocks a reconciliation.
type FXClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFXClient creates a new FX rate client. An empty baseURL uses the
// default endpoint.
func NewFXClient(baseURL string, timeout time.Duration) *FXClient {
	if baseURL == "" {
		baseURL = DefaultFXBaseURL
	}
	return &FXClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type fxResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// USDToTWD fetches the current USD→TWD rate
func (c *FXClient) USDToTWD(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v6/latest/USD", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build fx request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fx request returned status %d", resp.StatusCode)
	}

	var payload fxResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode fx response: %w", err)
	}

	twd, ok := payload.Rates["TWD"]
	if payload.Result != "success" || !ok || twd <= 0 {
		return decimal.Zero, fmt.Errorf("fx response missing TWD rate")
	}
	return decimal.NewFromFloat(twd), nil
}
