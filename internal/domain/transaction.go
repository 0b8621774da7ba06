package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeAction represents the side of a stock transaction
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Transaction represents one row of the append-only stock trade ledger
// The engine never mutates history; it only derives aggregates
type Transaction struct {
	ID             uuid.UUID
	Date           time.Time
	Action         TradeAction
	Bucket         Bucket
	InstrumentCode string
	Quantity       decimal.Decimal // signed: positive for BUY, negative for SELL

	Price decimal.Decimal

	// Fee and Tax are tri-state: positive = explicit amount, zero = unset
	// (defaulted by FeePolicy), negative = explicitly free.
	Fee decimal.Decimal
	Tax decimal.Decimal // sell-side only

	Purpose string
	Note    string
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
func (t *Transaction) Validate() error {
	if t.Action != ActionBuy && t.Action != ActionSell {
		return errors.New("transaction action must be BUY or SELL")
	}
	if !t.Bucket.Valid() {
		return errors.New("transaction bucket must be CONSERVATIVE, AGGRESSIVE, or LOTTERY")
	}
	if t.InstrumentCode == "" {
		return errors.New("transaction instrument code cannot be empty")
	}
	if t.Date.IsZero() {
		return errors.New("transaction date is required")
	}
	if t.Quantity.IsZero() {
		return errors.New("transaction quantity cannot be zero")
	}
	if t.Price.IsNegative() {
		return errors.New("transaction price cannot be negative")
	}
	return nil
}

// Normalize forces the quantity sign to match the action:
// BUY → positive, SELL → negative
func (t *Transaction) Normalize() {
	switch t.Action {
	case ActionBuy:
		t.Quantity = t.Quantity.Abs()
	case ActionSell:
		t.Quantity = t.Quantity.Abs().Neg()
	}
}

// SignedQuantity returns the quantity with the sign implied by the action,
// regardless of how the row was stored
func (t *Transaction) SignedQuantity() decimal.Decimal {
	if t.Action == ActionSell {
		return t.Quantity.Abs().Neg()
	}
	return t.Quantity.Abs()
}

// TradeAmount is |quantity| × price
func (t *Transaction) TradeAmount() decimal.Decimal {
	return t.Quantity.Abs().Mul(t.Price)
}

// FeePolicy holds the broker-fee and sell-tax approximation rates applied
// when a ledger row leaves fee or tax unset
type FeePolicy struct {
	FeeRate     decimal.Decimal // fraction of trade amount, default 0.1425%
	SellTaxRate decimal.Decimal // fraction of trade amount, default 0.3%, SELL only
}

// DefaultFeePolicy returns the standard broker approximation rates
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		FeeRate:     decimal.NewFromFloat(0.001425),
		SellTaxRate: decimal.NewFromFloat(0.003),
	}
}

// EffectiveFee resolves the tri-state fee field:
// positive = as stored, zero = trade amount × FeeRate, negative = free
func (p FeePolicy) EffectiveFee(t *Transaction) decimal.Decimal {
	if t.Fee.IsPositive() {
		return t.Fee
	}
	if t.Fee.IsNegative() {
		return decimal.Zero
	}
	return t.TradeAmount().Mul(p.FeeRate)
}

// EffectiveTax resolves the tri-state tax field for SELL rows.
// BUY rows never carry tax.
func (p FeePolicy) EffectiveTax(t *Transaction) decimal.Decimal {
	if t.Action != ActionSell {
		return decimal.Zero
	}
	if t.Tax.IsPositive() {
		return t.Tax
	}
	if t.Tax.IsNegative() {
		return decimal.Zero
	}
	return t.TradeAmount().Mul(p.SellTaxRate)
}
