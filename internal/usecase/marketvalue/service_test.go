package marketvalue

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// stubQuotes serves fixed prices and records which symbols were asked for
type stubQuotes struct {
	prices map[string]decimal.Decimal
	calls  []string
}

func (s *stubQuotes) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	s.calls = append(s.calls, symbol)
	price, ok := s.prices[symbol]
	if !ok {
		return decimal.Zero, errors.New("quote unavailable")
	}
	return price, nil
}

func TestValue_SumsAvailableQuotes(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(220),
		"QQQ": decimal.NewFromInt(400),
	}}
	svc := NewService(quotes)

	holdings := map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(3),
		"QQQ": decimal.NewFromInt(2),
	}

	res := svc.Value(context.Background(), holdings)

	assert.True(t, res.Total.Equal(decimal.NewFromInt(1460)), "3×220 + 2×400, got %s", res.Total)
	assert.Empty(t, res.Unavailable)
	assert.Len(t, res.Details, 2)
	// Deterministic order: each instrument is priced exactly once.
	assert.Equal(t, []string{"QQQ", "VOO"}, quotes.calls)
}

func TestValue_FailedQuoteIsUnavailableNotZero(t *testing.T) {
	// A failed lookup must be distinguishable from a true zero value: the
	// instrument lands in Unavailable and contributes nothing to the total.
	quotes := &stubQuotes{prices: map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(220),
	}}
	svc := NewService(quotes)

	res := svc.Value(context.Background(), map[string]decimal.Decimal{
		"VOO":  decimal.NewFromInt(1),
		"MYST": decimal.NewFromInt(10),
	})

	assert.True(t, res.Total.Equal(decimal.NewFromInt(220)))
	assert.Equal(t, []string{"MYST"}, res.Unavailable)

	for _, d := range res.Details {
		if d.Instrument == "MYST" {
			assert.False(t, d.Available)
			assert.True(t, d.Value.IsZero())
		}
	}
}

func TestValue_EmptyHoldings(t *testing.T) {
	res := NewService(&stubQuotes{}).Value(context.Background(), nil)
	assert.True(t, res.Total.IsZero())
	assert.Empty(t, res.Unavailable, "no holdings means nothing to report as unavailable")
}

func TestValue_NilProvider(t *testing.T) {
	res := NewService(nil).Value(context.Background(), map[string]decimal.Decimal{
		"VOO": decimal.NewFromInt(1),
	})
	assert.True(t, res.Total.IsZero())
	assert.Equal(t, []string{"VOO"}, res.Unavailable)
}
