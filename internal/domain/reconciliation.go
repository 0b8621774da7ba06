package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WarningKind classifies the recoverable conditions a reconciliation can
// surface. None of them abort computation; they annotate partial results.
type WarningKind string

const (
	// WarningMissingData flags an empty or absent dataset
	WarningMissingData WarningKind = "MISSING_DATA"
	// WarningQuoteUnavailable flags a failed external price lookup,
	// distinct from a true zero market value
	WarningQuoteUnavailable WarningKind = "QUOTE_UNAVAILABLE"
	// WarningSchemaValidation flags a malformed or inconsistent field,
	// e.g. allocation weights not summing to 100
	WarningSchemaValidation WarningKind = "SCHEMA_VALIDATION"
	// WarningConfigurationGap flags an optional field an algorithm wanted
	// but could not find; the sub-feature is skipped
	WarningConfigurationGap WarningKind = "CONFIGURATION_GAP"
)

// Warning is a non-fatal finding attached to reconciliation output
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Bucket     Bucket      `json:"bucket,omitempty"`
	Instrument string      `json:"instrument,omitempty"`
	Message    string      `json:"message"`
}

// ReconciliationRecord is the per-(bucket, instrument) tuple handed to the
// presentation layer: planned vs actual vs market value plus locked
// collateral and the rates derived from them. Ephemeral, recomputed per
// request.
type ReconciliationRecord struct {
	Bucket           Bucket          `json:"bucket"`
	InstrumentCode   string          `json:"instrument_code,omitempty"` // empty for an undistributed bucket
	PlannedAmount    decimal.Decimal `json:"planned_amount"`
	ActualCost       decimal.Decimal `json:"actual_cost"`
	MarketValue      decimal.Decimal `json:"market_value"`
	LockedCollateral decimal.Decimal `json:"locked_collateral"`
	ExecutionRate    decimal.Decimal `json:"execution_rate"` // actualCost / plannedAmount
	ProfitAndLoss    decimal.Decimal `json:"profit_and_loss"`
	ReturnRate       decimal.Decimal `json:"return_rate"` // P&L / actualCost
}

// Derive fills the execution rate, P&L, and return rate from the three
// base amounts. Rates are zero when their denominators are not positive.
func (r *ReconciliationRecord) Derive() {
	if r.PlannedAmount.IsPositive() {
		r.ExecutionRate = r.ActualCost.Div(r.PlannedAmount)
	} else {
		r.ExecutionRate = decimal.Zero
	}
	r.ProfitAndLoss = r.MarketValue.Sub(r.ActualCost)
	if r.ActualCost.IsPositive() {
		r.ReturnRate = r.ProfitAndLoss.Div(r.ActualCost)
	} else {
		r.ReturnRate = decimal.Zero
	}
}

// BucketSummary rolls the per-instrument records of one bucket up into a
// single tuple with the same derived rates
type BucketSummary struct {
	Bucket           Bucket                 `json:"bucket"`
	PlannedAmount    decimal.Decimal        `json:"planned_amount"`
	ActualCost       decimal.Decimal        `json:"actual_cost"`
	MarketValue      decimal.Decimal        `json:"market_value"`
	LockedCollateral decimal.Decimal        `json:"locked_collateral"`
	ExecutionRate    decimal.Decimal        `json:"execution_rate"`
	ProfitAndLoss    decimal.Decimal        `json:"profit_and_loss"`
	ReturnRate       decimal.Decimal        `json:"return_rate"`
	Records          []ReconciliationRecord `json:"records"`
}

// Summarize builds a bucket summary from its per-instrument records
func Summarize(bucket Bucket, records []ReconciliationRecord) BucketSummary {
	s := BucketSummary{
		Bucket:           bucket,
		PlannedAmount:    decimal.Zero,
		ActualCost:       decimal.Zero,
		MarketValue:      decimal.Zero,
		LockedCollateral: decimal.Zero,
		Records:          records,
	}
	for _, r := range records {
		s.PlannedAmount = s.PlannedAmount.Add(r.PlannedAmount)
		s.ActualCost = s.ActualCost.Add(r.ActualCost)
		s.MarketValue = s.MarketValue.Add(r.MarketValue)
		s.LockedCollateral = s.LockedCollateral.Add(r.LockedCollateral)
	}
	roll := ReconciliationRecord{
		PlannedAmount: s.PlannedAmount,
		ActualCost:    s.ActualCost,
		MarketValue:   s.MarketValue,
	}
	roll.Derive()
	s.ExecutionRate = roll.ExecutionRate
	s.ProfitAndLoss = roll.ProfitAndLoss
	s.ReturnRate = roll.ReturnRate
	return s
}

// Report is the grand-total reconciliation across all buckets, the single
// object crossing into the presentation layer
type Report struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	Buckets          []BucketSummary `json:"buckets"`
	TotalPlanned     decimal.Decimal `json:"total_planned"`
	TotalActual      decimal.Decimal `json:"total_actual"`
	TotalMarketValue decimal.Decimal `json:"total_market_value"`
	TotalCollateral  decimal.Decimal `json:"total_collateral"`
	OptionCashTotal  decimal.Decimal `json:"option_cash_total"`
	ExecutionRate    decimal.Decimal `json:"execution_rate"` // (actual + option cash) / planned
	Warnings         []Warning       `json:"warnings,omitempty"`
}

// Snapshot is the immutable point-in-time view of the four datasets every
// engine query computes from. The engine never holds a live reference into
// mutable storage; callers hand it a fresh snapshot per request.
type Snapshot struct {
	Plans        []PlanEntry
	Allocations  []BucketAllocation
	Transactions []Transaction
	Options      []OptionPosition
}
