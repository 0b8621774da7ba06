// Package holdings derives net share positions from the stock trade ledger.
package holdings

import (
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// Calculate returns the net positive quantity held per instrument for a
// bucket, optionally restricted to a single instrument code.
//
// Logic:
//  1. Select transactions matching the bucket (and instrument, if given)
//  2. Accumulate signed quantity per instrument (BUY +|qty|, SELL -|qty|)
//  3. Drop instruments whose net quantity is zero or negative
//
// An empty ledger or no matches yields an empty map, not an error.
func Calculate(txs []domain.Transaction, bucket domain.Bucket, instrument string) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for i := range txs {
		t := &txs[i]
		if t.Bucket != bucket {
			continue
		}
		if instrument != "" && t.InstrumentCode != instrument {
			continue
		}
		net[t.InstrumentCode] = net[t.InstrumentCode].Add(t.SignedQuantity())
	}

	for code, qty := range net {
		if !qty.IsPositive() {
			delete(net, code)
		}
	}
	return net
}

// TotalShares sums the quantities of a holdings map
func TotalShares(h map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, qty := range h {
		total = total.Add(qty)
	}
	return total
}
