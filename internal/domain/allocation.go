package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NumMarginTiers is the number of staged buy-in levels on the price ladder
const NumMarginTiers = 5

// BucketAllocation represents one instrument's share of a bucket: how much
// of the bucket's planned amount it should receive, and (optionally) the
// fair value and margin tiers driving the staged buy-in price ladder
//
// A bucket is always a weighted list of one-or-more instruments; a bucket
// with no allocation rows is reconciled as a single undistributed position
type BucketAllocation struct {
	ID             uuid.UUID
	Bucket         Bucket
	InstrumentCode string
	WeightPercent  decimal.Decimal

	// FairValue is the reference price the margin tiers discount from.
	// Zero means unset; the ladder is skipped without it.
	FairValue decimal.Decimal

	// MarginTierPercents are the ordered discount levels below fair value
	// (e.g. 100, 93, 80, 70, 50). Non-positive tiers are skipped.
	MarginTierPercents [NumMarginTiers]decimal.Decimal

	// TierWeightPercents are the optional per-tier deployment weights:
	// what share of the planned amount should be deployed at each tier.
	// Missing weights suppress the cumulative deploy-by marker only.
	TierWeightPercents [NumMarginTiers]decimal.Decimal
}

// Validate ensures the allocation row adheres to domain rules
// Returns an error if validation fails
func (a *BucketAllocation) Validate() error {
	if !a.Bucket.Valid() {
		return errors.New("allocation bucket must be CONSERVATIVE, AGGRESSIVE, or LOTTERY")
	}
	if a.InstrumentCode == "" {
		return errors.New("allocation instrument code cannot be empty")
	}
	if a.WeightPercent.IsNegative() {
		return errors.New("allocation weight cannot be negative")
	}
	if a.FairValue.IsNegative() {
		return errors.New("allocation fair value cannot be negative")
	}
	return nil
}

// WeightSum returns the total weight percent across allocation rows.
// The invariant is a 100% sum; deviations are surfaced as warnings by the
// distributor, never auto-corrected here.
func WeightSum(rows []BucketAllocation) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.WeightPercent)
	}
	return sum
}

// AllocationsFor selects the allocation rows belonging to a bucket
func AllocationsFor(rows []BucketAllocation, bucket Bucket) []BucketAllocation {
	var out []BucketAllocation
	for _, r := range rows {
		if r.Bucket == bucket {
			out = append(out, r)
		}
	}
	return out
}
