package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanEntry represents one row of the investment plan: the money a bucket
// is designated to receive in a given calendar month
// Entries are read-only to the engine; multiple entries per bucket/month
// are summed during reconciliation
type PlanEntry struct {
	ID            uuid.UUID
	Month         time.Time // normalized to the first day of the month, UTC
	Bucket        Bucket
	PlannedAmount decimal.Decimal
	FXRate        decimal.Decimal // USD→TWD reference rate at entry time
}

// Validate ensures the plan entry adheres to domain rules
// Returns an error if validation fails
func (p *PlanEntry) Validate() error {
	if !p.Bucket.Valid() {
		return errors.New("plan entry bucket must be CONSERVATIVE, AGGRESSIVE, or LOTTERY")
	}
	if p.Month.IsZero() {
		return errors.New("plan entry month is required")
	}
	if p.PlannedAmount.IsNegative() {
		return errors.New("planned amount cannot be negative")
	}
	if !p.FXRate.IsPositive() {
		return errors.New("fx rate must be positive")
	}
	return nil
}

// Normalize truncates the month field to the first day of its calendar month
func (p *PlanEntry) Normalize() {
	p.Month = MonthOf(p.Month)
}

// MonthOf returns the first day of t's calendar month in UTC
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PlannedTotal sums the planned amount of all entries for a bucket
func PlannedTotal(entries []PlanEntry, bucket Bucket) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Bucket == bucket {
			total = total.Add(e.PlannedAmount)
		}
	}
	return total
}
