package compliance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

func entry(bucket domain.Bucket, year int, month time.Month, amount float64) domain.PlanEntry {
	return domain.PlanEntry{
		ID:            uuid.New(),
		Month:         time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Bucket:        bucket,
		PlannedAmount: decimal.NewFromFloat(amount),
		FXRate:        decimal.NewFromFloat(31.5),
	}
}

var (
	policyStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	april       = time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
)

func TestCheckMonthlyCoverage_ReportsGaps(t *testing.T) {
	// Conservative entries exist for January and March; checked in April,
	// the gaps are February and April.
	plans := []domain.PlanEntry{
		entry(domain.BucketConservative, 2026, time.January, 300),
		entry(domain.BucketConservative, 2026, time.March, 300),
		entry(domain.BucketAggressive, 2026, time.February, 900), // wrong bucket, doesn't cover
	}

	missing := CheckMonthlyCoverage(plans, policyStart, april)

	require.Len(t, missing, 2)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), missing[0])
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), missing[1])
}

func TestCheckMonthlyCoverage_NoConservativeDataNoFindings(t *testing.T) {
	// A plan with no conservative entries at all is missing data, not a
	// string of violations.
	plans := []domain.PlanEntry{
		entry(domain.BucketAggressive, 2026, time.January, 900),
	}
	assert.Nil(t, CheckMonthlyCoverage(plans, policyStart, april))
	assert.Nil(t, CheckMonthlyCoverage(nil, policyStart, april))
}

func TestCheckMonthlyMinimum_ReportsShortfall(t *testing.T) {
	// February totals 100+150 = 250 against a 300 minimum → shortfall 50.
	plans := []domain.PlanEntry{
		entry(domain.BucketConservative, 2026, time.January, 300),
		entry(domain.BucketConservative, 2026, time.February, 100),
		entry(domain.BucketConservative, 2026, time.February, 150),
	}

	findings := CheckMonthlyMinimum(plans, decimal.NewFromInt(300))

	require.Len(t, findings, 1)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), findings[0].Month)
	assert.True(t, findings[0].Amount.Equal(decimal.NewFromInt(250)))
	assert.True(t, findings[0].Shortfall.Equal(decimal.NewFromInt(50)))
}

func TestCheckLotteryRatio_Breach(t *testing.T) {
	// Lottery 150 of 1000 total = 15%, over the 10% cap.
	plans := []domain.PlanEntry{
		entry(domain.BucketConservative, 2026, time.January, 550),
		entry(domain.BucketAggressive, 2026, time.January, 300),
		entry(domain.BucketLottery, 2026, time.January, 150),
	}

	breach := CheckLotteryRatio(plans, decimal.NewFromInt(10))

	require.NotNil(t, breach)
	assert.True(t, breach.RatioPercent.Equal(decimal.NewFromInt(15)), "got %s", breach.RatioPercent)
	assert.True(t, breach.LotteryAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, breach.TotalAmount.Equal(decimal.NewFromInt(1000)))
}

func TestCheckLotteryRatio_AtCapHolds(t *testing.T) {
	// Exactly at the cap is compliant; the breach requires strictly over.
	plans := []domain.PlanEntry{
		entry(domain.BucketConservative, 2026, time.January, 900),
		entry(domain.BucketLottery, 2026, time.January, 100),
	}
	assert.Nil(t, CheckLotteryRatio(plans, decimal.NewFromInt(10)))
}

func TestCheckLotteryRatio_ZeroTotal(t *testing.T) {
	plans := []domain.PlanEntry{
		entry(domain.BucketConservative, 2026, time.January, 0),
	}
	assert.Nil(t, CheckLotteryRatio(plans, decimal.NewFromInt(10)), "zero total yields no ratio finding")
}

func TestCheck_RunsAllThree(t *testing.T) {
	plans := []domain.PlanEntry{
		entry(domain.BucketConservative, 2026, time.January, 200),
		entry(domain.BucketLottery, 2026, time.January, 150),
	}

	result := Check(plans, policyStart, decimal.NewFromInt(300), decimal.NewFromInt(10), april)

	assert.Len(t, result.MissingMonths, 3, "February through April uncovered")
	assert.Len(t, result.BelowMinimum, 1)
	assert.NotNil(t, result.RatioBreach)
}
