// Package quote provides the external market-data collaborators: a Yahoo
// Finance price client, a USD→TWD FX-rate client, a CNN fear-and-greed
// sentiment client, and a redis read-through cache. Lookups are fallible by
// design; callers degrade the affected number instead of aborting.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/yuchinglo/trifolio-backend/internal/common"
)

const (
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout      = 10 * time.Second
	DefaultRateLimit    = 5 // requests per second
)

// cryptoSymbols maps bare crypto tickers to their Yahoo USD pairs
var cryptoSymbols = map[string]string{
	"BTC":  "BTC-USD",
	"ETH":  "ETH-USD",
	"SOL":  "SOL-USD",
	"XRP":  "XRP-USD",
	"ADA":  "ADA-USD",
	"DOGE": "DOGE-USD",
}

// YahooClient fetches current prices from the Yahoo Finance chart API
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// YahooOption configures the client
type YahooOption func(*YahooClient)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) YahooOption {
	return func(c *YahooClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the request rate limit
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(c *YahooClient) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) YahooOption {
	return func(c *YahooClient) {
		c.logger = logger
	}
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL: DefaultYahooBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// chartResponse is the subset of the Yahoo chart payload we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPrice fetches the current price for a ticker. Bare crypto symbols are
// mapped to their USD pair (BTC → BTC-USD).
func (c *YahooClient) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := cryptoSymbols[ticker]; ok {
		ticker = mapped
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "trifolio/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote request for %s returned status %d", ticker, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode quote for %s: %w", ticker, err)
	}
	if payload.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("quote lookup for %s failed: %s", ticker, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || payload.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return decimal.Zero, fmt.Errorf("no price in quote response for %s", ticker)
	}

	price := decimal.NewFromFloat(payload.Chart.Result[0].Meta.RegularMarketPrice)
	c.logger.Debug().Str("ticker", ticker).Str("price", price.String()).Msg("quote fetched")
	return price, nil
}
