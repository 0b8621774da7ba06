// Package allocator spreads a bucket's planned amount across its
// constituent instruments and computes the staged buy-in price ladder.
package allocator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Distribution is one instrument's slice of a bucket's planned amount
type Distribution struct {
	InstrumentCode string          `json:"instrument_code,omitempty"` // empty for an undistributed bucket
	WeightPercent  decimal.Decimal `json:"weight_percent"`
	PlannedAmount  decimal.Decimal `json:"planned_amount"`
}

// Distribute splits bucketTotal across the allocation rows by weight:
// perInstrument = bucketTotal × weight / 100.
//
// A bucket without configured rows degenerates to a single undistributed
// distribution carrying the whole amount. Weights not summing to 100 are
// surfaced as a SCHEMA_VALIDATION warning, never corrected.
func Distribute(bucketTotal decimal.Decimal, rows []domain.BucketAllocation) ([]Distribution, []domain.Warning) {
	if len(rows) == 0 {
		return []Distribution{{
			WeightPercent: hundred,
			PlannedAmount: bucketTotal,
		}}, nil
	}

	var warnings []domain.Warning
	if sum := domain.WeightSum(rows); !sum.Equal(hundred) {
		warnings = append(warnings, domain.Warning{
			Kind:    domain.WarningSchemaValidation,
			Bucket:  rows[0].Bucket,
			Message: fmt.Sprintf("allocation weights sum to %s%%, expected 100%%", sum.String()),
		})
	}

	dists := make([]Distribution, 0, len(rows))
	for _, row := range rows {
		dists = append(dists, Distribution{
			InstrumentCode: row.InstrumentCode,
			WeightPercent:  row.WeightPercent,
			PlannedAmount:  bucketTotal.Mul(row.WeightPercent).Div(hundred),
		})
	}
	return dists, warnings
}

// LadderStep is one rung of the buy-in price ladder: the price at which a
// staged purchase is planned, and optionally the cumulative share of the
// planned amount that should be deployed by the time price reaches it
type LadderStep struct {
	Tier          int             `json:"tier"` // 1-based
	MarginPercent decimal.Decimal `json:"margin_percent"`
	Price         decimal.Decimal `json:"price"` // fairValue × margin / 100

	// Deploy-by marker, present only when the row carries a deployment
	// weight for this tier.
	HasDeployMark    bool            `json:"has_deploy_mark"`
	CumulativeWeight decimal.Decimal `json:"cumulative_weight_percent"`
	DeployByAmount   decimal.Decimal `json:"deploy_by_amount"`
}

// PriceLadder computes the tier prices for one allocation row. Tiers with a
// non-positive margin percent are skipped. Tiers with a positive margin but
// no positive deployment weight still emit a price, without the deploy-by
// marker; the gap is reported once as a CONFIGURATION_GAP warning.
// Cumulative deployment weight carries forward across tiers.
//
// Rows without a fair value have no ladder.
func PriceLadder(row domain.BucketAllocation, plannedAmount decimal.Decimal) ([]LadderStep, []domain.Warning) {
	if !row.FairValue.IsPositive() {
		return nil, nil
	}

	var steps []LadderStep
	var warnings []domain.Warning
	cumulative := decimal.Zero
	gapReported := false

	for i := 0; i < domain.NumMarginTiers; i++ {
		margin := row.MarginTierPercents[i]
		if !margin.IsPositive() {
			continue
		}

		step := LadderStep{
			Tier:          i + 1,
			MarginPercent: margin,
			Price:         row.FairValue.Mul(margin).Div(hundred),
		}

		weight := row.TierWeightPercents[i]
		if weight.IsPositive() {
			cumulative = cumulative.Add(weight)
			step.HasDeployMark = true
			step.CumulativeWeight = cumulative
			step.DeployByAmount = plannedAmount.Mul(cumulative).Div(hundred)
		} else if !gapReported {
			warnings = append(warnings, domain.Warning{
				Kind:       domain.WarningConfigurationGap,
				Bucket:     row.Bucket,
				Instrument: row.InstrumentCode,
				Message:    "tier deployment weights not configured; ladder deploy-by markers omitted",
			})
			gapReported = true
		}

		steps = append(steps, step)
	}
	return steps, warnings
}
