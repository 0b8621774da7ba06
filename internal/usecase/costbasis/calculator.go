// Package costbasis derives the money actually committed to a bucket or
// instrument from buy-side ledger rows, applying the fee defaulting policy.
package costbasis

import (
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// Calculate returns the actual cost for a bucket, optionally restricted to
// a single instrument: the sum over BUY transactions of
// tradeAmount + effectiveFee.
//
// Sell-side rows never reduce the cost basis; realized proceeds are a
// statistics concern only (see Stats).
func Calculate(txs []domain.Transaction, bucket domain.Bucket, instrument string, policy domain.FeePolicy) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		t := &txs[i]
		if t.Action != domain.ActionBuy || t.Bucket != bucket {
			continue
		}
		if instrument != "" && t.InstrumentCode != instrument {
			continue
		}
		total = total.Add(t.TradeAmount()).Add(policy.EffectiveFee(t))
	}
	return total
}

// TradeStats aggregates ledger-wide totals for the analytics surface
type TradeStats struct {
	TotalBuy          decimal.Decimal `json:"total_buy"`           // Σ tradeAmount + fee over BUY rows
	TotalSellProceeds decimal.Decimal `json:"total_sell_proceeds"` // Σ tradeAmount - fee - tax over SELL rows
	TotalFees         decimal.Decimal `json:"total_fees"`
	TotalTaxes        decimal.Decimal `json:"total_taxes"`
}

// Stats computes buy/sell/fee/tax totals across the whole ledger.
// Proceeds use the same defaulting rules as the cost basis: unset fees
// default to tradeAmount × feeRate, unset sell taxes to tradeAmount × taxRate.
func Stats(txs []domain.Transaction, policy domain.FeePolicy) TradeStats {
	s := TradeStats{
		TotalBuy:          decimal.Zero,
		TotalSellProceeds: decimal.Zero,
		TotalFees:         decimal.Zero,
		TotalTaxes:        decimal.Zero,
	}
	for i := range txs {
		t := &txs[i]
		amount := t.TradeAmount()
		fee := policy.EffectiveFee(t)
		tax := policy.EffectiveTax(t)

		s.TotalFees = s.TotalFees.Add(fee)
		s.TotalTaxes = s.TotalTaxes.Add(tax)

		switch t.Action {
		case domain.ActionBuy:
			s.TotalBuy = s.TotalBuy.Add(amount).Add(fee)
		case domain.ActionSell:
			s.TotalSellProceeds = s.TotalSellProceeds.Add(amount).Sub(fee).Sub(tax)
		}
	}
	return s
}
