// Package collateral derives the margin currently locked by open short
// option positions funded from a given bucket or instrument.
package collateral

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// LockedPosition describes one open short position for traceability
type LockedPosition struct {
	Underlying string          `json:"underlying"`
	Expiry     time.Time       `json:"expiry"`
	Margin     decimal.Decimal `json:"margin"`
}

// Calculate sums the margin of all SELL positions whose expiry is on or
// after asOf and whose funding source matches target (case-insensitive).
// Bought or expired positions never lock collateral.
//
// Returns the total plus the matching positions for display.
func Calculate(options []domain.OptionPosition, target string, asOf time.Time) (decimal.Decimal, []LockedPosition) {
	total := decimal.Zero
	var locked []LockedPosition
	for i := range options {
		o := &options[i]
		if !o.LocksCollateral(asOf) || !o.FundedBy(target) {
			continue
		}
		total = total.Add(o.Margin)
		locked = append(locked, LockedPosition{
			Underlying: o.Underlying,
			Expiry:     o.Expiry,
			Margin:     o.Margin,
		})
	}
	return total, locked
}
