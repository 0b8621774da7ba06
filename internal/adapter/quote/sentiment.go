package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultSentimentBaseURL is CNN's fear-and-greed data endpoint
const DefaultSentimentBaseURL = "https://production.dataviz.cnn.io"

// SentimentIndex is the CNN fear-and-greed reading shown on the overview
type SentimentIndex struct {
	Value       float64   `json:"value"`
	Rating      string    `json:"rating"`
	LastUpdated time.Time `json:"last_updated"`
}

// SentimentClient fetches the fear-and-greed index. Purely informational;
// failure renders as "unavailable" on the dashboard.
type SentimentClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSentimentClient creates a new sentiment client. An empty baseURL uses
// the default endpoint.
func NewSentimentClient(baseURL string, timeout time.Duration) *SentimentClient {
	if baseURL == "" {
		baseURL = DefaultSentimentBaseURL
	}
	return &SentimentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sentimentResponse struct {
	FearAndGreed struct {
		Score     float64 `json:"score"`
		Rating    string  `json:"rating"`
		Timestamp string  `json:"timestamp"`
	} `json:"fear_and_greed"`
}

// Get fetches the current index reading
func (c *SentimentClient) Get(ctx context.Context) (*SentimentIndex, error) {
	url := fmt.Sprintf("%s/index/fearandgreed/graphdata", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sentiment request: %w", err)
	}
	req.Header.Set("User-Agent", "trifolio/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sentiment request returned status %d", resp.StatusCode)
	}

	var payload sentimentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode sentiment response: %w", err)
	}

	idx := &SentimentIndex{
		Value:  payload.FearAndGreed.Score,
		Rating: payload.FearAndGreed.Rating,
	}
	if ts, err := time.Parse(time.RFC3339, payload.FearAndGreed.Timestamp); err == nil {
		idx.LastUpdated = ts
	}
	return idx, nil
}
