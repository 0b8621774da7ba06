package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OptionRight represents the option right
type OptionRight string

const (
	RightCall OptionRight = "CALL"
	RightPut  OptionRight = "PUT"
)

// OptionDirection represents whether the position was bought or sold
type OptionDirection string

const (
	DirectionBuy  OptionDirection = "BUY"
	DirectionSell OptionDirection = "SELL"
)

// contractMultiplier is the standard 100-share equity option multiplier
var contractMultiplier = decimal.NewFromInt(100)

// OptionPosition represents one row of the append-only option ledger.
// Only SELL positions that have not yet expired lock collateral against
// their funding source (a bucket name or an instrument tag).
type OptionPosition struct {
	ID         uuid.UUID
	TradeDate  time.Time
	Underlying string
	Strike     decimal.Decimal
	Expiry     time.Time
	Right      OptionRight
	Direction  OptionDirection
	Contracts  int64
	Premium    decimal.Decimal
	Fee        decimal.Decimal
	Margin     decimal.Decimal // collateral reserved while the position is open

	FundingSource string // bucket name or instrument code, matched case-insensitively
	StrategyNote  string
}

// Validate ensures the option position adheres to domain rules
// Returns an error if validation fails
func (o *OptionPosition) Validate() error {
	if o.Underlying == "" {
		return errors.New("option underlying cannot be empty")
	}
	if o.Right != RightCall && o.Right != RightPut {
		return errors.New("option right must be CALL or PUT")
	}
	if o.Direction != DirectionBuy && o.Direction != DirectionSell {
		return errors.New("option direction must be BUY or SELL")
	}
	if o.Contracts <= 0 {
		return errors.New("option contracts must be positive")
	}
	if o.Margin.IsNegative() {
		return errors.New("option margin cannot be negative")
	}
	if o.Expiry.IsZero() {
		return errors.New("option expiry is required")
	}
	return nil
}

// TradeAmount is contracts × premium × 100
func (o *OptionPosition) TradeAmount() decimal.Decimal {
	return decimal.NewFromInt(o.Contracts).Mul(o.Premium).Mul(contractMultiplier)
}

// TotalCost is the trade amount plus fee
func (o *OptionPosition) TotalCost() decimal.Decimal {
	return o.TradeAmount().Add(o.Fee)
}

// LocksCollateral reports whether the position still reserves margin on the
// given date: a short position whose expiry is on or after that day.
// Bought or expired positions never lock collateral.
func (o *OptionPosition) LocksCollateral(asOf time.Time) bool {
	if o.Direction != DirectionSell {
		return false
	}
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	expiry := time.Date(o.Expiry.Year(), o.Expiry.Month(), o.Expiry.Day(), 0, 0, 0, 0, time.UTC)
	return !expiry.Before(day)
}

// FundedBy reports whether the position's funding source matches the target
// tag (case-insensitive)
func (o *OptionPosition) FundedBy(target string) bool {
	return strings.EqualFold(strings.TrimSpace(o.FundingSource), strings.TrimSpace(target))
}

// OptionCashTotal sums the total cost column across the ledger, the number
// the overview reports as option income/outgo
func OptionCashTotal(options []OptionPosition) decimal.Decimal {
	total := decimal.Zero
	for _, o := range options {
		total = total.Add(o.TotalCost())
	}
	return total
}
