package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartBody(price float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%g}}],"error":null}}`, price)
}

func TestYahooGetPrice(t *testing.T) {
	var requested string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		fmt.Fprint(w, chartBody(219.55))
	}))
	defer ts.Close()

	client := NewYahooClient(WithBaseURL(ts.URL))

	price, err := client.GetPrice(context.Background(), "voo")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(219.55)), "got %s", price)
	assert.Equal(t, "/v8/finance/chart/VOO", requested, "symbols are upper-cased")
}

func TestYahooGetPrice_CryptoSymbolMapping(t *testing.T) {
	var requested string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		fmt.Fprint(w, chartBody(64000))
	}))
	defer ts.Close()

	client := NewYahooClient(WithBaseURL(ts.URL))

	_, err := client.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/BTC-USD", requested, "bare crypto tickers map to their USD pair")
}

func TestYahooGetPrice_ErrorPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer ts.Close()

	client := NewYahooClient(WithBaseURL(ts.URL))

	_, err := client.GetPrice(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooGetPrice_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewYahooClient(WithBaseURL(ts.URL))

	_, err := client.GetPrice(context.Background(), "VOO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFXClient_USDToTWD(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/latest/USD", r.URL.Path)
		fmt.Fprint(w, `{"result":"success","rates":{"TWD":31.42,"JPY":150.1}}`)
	}))
	defer ts.Close()

	client := NewFXClient(ts.URL, DefaultTimeout)

	rate, err := client.USDToTWD(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(31.42)), "got %s", rate)
}

func TestFXClient_MissingRate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result":"success","rates":{"JPY":150.1}}`)
	}))
	defer ts.Close()

	_, err := NewFXClient(ts.URL, DefaultTimeout).USDToTWD(context.Background())
	assert.Error(t, err)
}

func TestSentimentClient_Get(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index/fearandgreed/graphdata", r.URL.Path)
		fmt.Fprint(w, `{"fear_and_greed":{"score":62.4,"rating":"greed","timestamp":"2026-04-20T14:00:00+00:00"}}`)
	}))
	defer ts.Close()

	client := NewSentimentClient(ts.URL, DefaultTimeout)

	idx, err := client.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 62.4, idx.Value)
	assert.Equal(t, "greed", idx.Rating)
	assert.Equal(t, 2026, idx.LastUpdated.Year())
}
