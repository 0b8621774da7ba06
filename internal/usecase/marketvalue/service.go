// Package marketvalue combines derived holdings with an external quote
// provider to produce point-in-time market values.
package marketvalue

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// QuoteProvider is the external price lookup collaborator. Implementations
// may cache with a short TTL; the engine only requires that a failed lookup
// returns an error rather than a silent zero.
type QuoteProvider interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Detail is the per-instrument breakdown of a valuation
type Detail struct {
	Instrument string          `json:"instrument"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Value      decimal.Decimal `json:"value"`
	Available  bool            `json:"available"` // false when the quote lookup failed
}

// Result is a valuation over a holdings map. Instruments whose quote failed
// contribute zero to Total and are listed in Unavailable, so callers can
// tell "price lookup failed" apart from "no holdings".
type Result struct {
	Total       decimal.Decimal `json:"total"`
	Details     []Detail        `json:"details"`
	Unavailable []string        `json:"unavailable,omitempty"`
}

// Service values holdings against a quote provider
type Service struct {
	quotes QuoteProvider
}

// NewService creates a new market valuation service
func NewService(quotes QuoteProvider) *Service {
	return &Service{quotes: quotes}
}

// Value prices every instrument in the holdings map once and sums
// quantity × price. A nil provider marks every instrument unavailable.
func (s *Service) Value(ctx context.Context, holdings map[string]decimal.Decimal) Result {
	res := Result{Total: decimal.Zero}

	// Deterministic order for output and for quote-call accounting.
	codes := make([]string, 0, len(holdings))
	for code := range holdings {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		qty := holdings[code]
		d := Detail{Instrument: code, Quantity: qty, Price: decimal.Zero, Value: decimal.Zero}

		if s.quotes != nil {
			price, err := s.quotes.GetPrice(ctx, code)
			if err == nil && price.IsPositive() {
				d.Price = price
				d.Value = qty.Mul(price)
				d.Available = true
				res.Total = res.Total.Add(d.Value)
			}
		}
		if !d.Available {
			res.Unavailable = append(res.Unavailable, code)
		}
		res.Details = append(res.Details, d)
	}
	return res
}
