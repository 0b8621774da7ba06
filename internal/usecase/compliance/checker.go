// Package compliance evaluates the investment plan against the three
// policy rules: monthly coverage, monthly minimum, and the lottery ratio
// cap. All checks are pure functions of the plan dataset; none mutates
// state and none short-circuits another.
package compliance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// MinimumFinding reports a month whose conservative plan total fell below
// the configured minimum
type MinimumFinding struct {
	Month     time.Time       `json:"month"`
	Amount    decimal.Decimal `json:"amount"`
	Minimum   decimal.Decimal `json:"minimum"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// RatioFinding reports a breach of the lottery-bucket ratio cap
type RatioFinding struct {
	RatioPercent    decimal.Decimal `json:"ratio_percent"`
	LotteryAmount   decimal.Decimal `json:"lottery_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	MaxRatioPercent decimal.Decimal `json:"max_ratio_percent"`
}

// Result carries the findings of all three checks. Every list may be empty;
// RatioBreach is nil when the cap holds.
type Result struct {
	MissingMonths []time.Time      `json:"missing_months,omitempty"`
	BelowMinimum  []MinimumFinding `json:"below_minimum,omitempty"`
	RatioBreach   *RatioFinding    `json:"ratio_breach,omitempty"`
}

// Check runs the three plan-compliance rules.
//
//   - Monthly coverage: every calendar month from policyStart through the
//     month of now must have at least one conservative entry.
//   - Monthly minimum: conservative entries grouped by month must sum to at
//     least minMonthly.
//   - Ratio cap: lottery planned / total planned × 100 must not exceed
//     maxLotteryRatioPercent.
//
// An empty plan dataset yields an empty result, never an error.
func Check(plans []domain.PlanEntry, policyStart time.Time, minMonthly, maxLotteryRatioPercent decimal.Decimal, now time.Time) Result {
	return Result{
		MissingMonths: CheckMonthlyCoverage(plans, policyStart, now),
		BelowMinimum:  CheckMonthlyMinimum(plans, minMonthly),
		RatioBreach:   CheckLotteryRatio(plans, maxLotteryRatioPercent),
	}
}

// CheckMonthlyCoverage enumerates every calendar month from policyStart
// through the month of now (inclusive) and reports months with no
// conservative plan entry. A plan with no conservative entries at all is
// treated as missing data and yields no findings.
func CheckMonthlyCoverage(plans []domain.PlanEntry, policyStart, now time.Time) []time.Time {
	covered := conservativeMonths(plans)
	if len(covered) == 0 {
		return nil
	}

	var missing []time.Time
	current := domain.MonthOf(now)
	for month := domain.MonthOf(policyStart); !month.After(current); month = month.AddDate(0, 1, 0) {
		if !covered[month] {
			missing = append(missing, month)
		}
	}
	return missing
}

// CheckMonthlyMinimum groups conservative entries by month and reports any
// month whose planned total is below the minimum, with the shortfall.
func CheckMonthlyMinimum(plans []domain.PlanEntry, minimum decimal.Decimal) []MinimumFinding {
	sums := make(map[time.Time]decimal.Decimal)
	var order []time.Time
	for _, p := range plans {
		if p.Bucket != domain.BucketConservative {
			continue
		}
		month := domain.MonthOf(p.Month)
		if _, seen := sums[month]; !seen {
			order = append(order, month)
		}
		sums[month] = sums[month].Add(p.PlannedAmount)
	}

	var findings []MinimumFinding
	for _, month := range order {
		amount := sums[month]
		if amount.LessThan(minimum) {
			findings = append(findings, MinimumFinding{
				Month:     month,
				Amount:    amount,
				Minimum:   minimum,
				Shortfall: minimum.Sub(amount),
			})
		}
	}
	return findings
}

// CheckLotteryRatio reports a breach when the lottery bucket's share of the
// total planned amount exceeds the cap. A zero total yields no finding.
func CheckLotteryRatio(plans []domain.PlanEntry, maxRatioPercent decimal.Decimal) *RatioFinding {
	total := decimal.Zero
	lottery := decimal.Zero
	for _, p := range plans {
		total = total.Add(p.PlannedAmount)
		if p.Bucket == domain.BucketLottery {
			lottery = lottery.Add(p.PlannedAmount)
		}
	}
	if !total.IsPositive() {
		return nil
	}

	ratio := lottery.Div(total).Mul(hundred)
	if ratio.LessThanOrEqual(maxRatioPercent) {
		return nil
	}
	return &RatioFinding{
		RatioPercent:    ratio,
		LotteryAmount:   lottery,
		TotalAmount:     total,
		MaxRatioPercent: maxRatioPercent,
	}
}

func conservativeMonths(plans []domain.PlanEntry) map[time.Time]bool {
	months := make(map[time.Time]bool)
	for _, p := range plans {
		if p.Bucket == domain.BucketConservative {
			months[domain.MonthOf(p.Month)] = true
		}
	}
	return months
}
