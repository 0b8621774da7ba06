package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDerive_ComputesRates(t *testing.T) {
	rec := ReconciliationRecord{
		PlannedAmount: decimal.NewFromInt(500),
		ActualCost:    decimal.NewFromInt(400),
		MarketValue:   decimal.NewFromInt(440),
	}
	rec.Derive()

	assert.True(t, rec.ExecutionRate.Equal(decimal.NewFromFloat(0.8)), "execution rate is actual / planned")
	assert.True(t, rec.ProfitAndLoss.Equal(decimal.NewFromInt(40)), "P&L is market value - actual")
	assert.True(t, rec.ReturnRate.Equal(decimal.NewFromFloat(0.1)), "return rate is P&L / actual")
}

func TestDerive_ZeroDenominators(t *testing.T) {
	// Division-by-zero guards: rates report zero rather than exploding when
	// nothing was planned or bought.
	rec := ReconciliationRecord{
		MarketValue: decimal.NewFromInt(100),
	}
	rec.Derive()

	assert.True(t, rec.ExecutionRate.IsZero(), "zero planned must yield zero execution rate")
	assert.True(t, rec.ReturnRate.IsZero(), "zero actual must yield zero return rate")
	assert.True(t, rec.ProfitAndLoss.Equal(decimal.NewFromInt(100)), "P&L still derives from market value")
}

func TestSummarize_RollsUpRecords(t *testing.T) {
	records := []ReconciliationRecord{
		{Bucket: BucketAggressive, InstrumentCode: "TSLA", PlannedAmount: decimal.NewFromInt(600), ActualCost: decimal.NewFromInt(300), MarketValue: decimal.NewFromInt(330), LockedCollateral: decimal.NewFromInt(5000)},
		{Bucket: BucketAggressive, InstrumentCode: "NVDA", PlannedAmount: decimal.NewFromInt(400), ActualCost: decimal.NewFromInt(200), MarketValue: decimal.NewFromInt(180)},
	}

	s := Summarize(BucketAggressive, records)

	assert.True(t, s.PlannedAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, s.ActualCost.Equal(decimal.NewFromInt(500)))
	assert.True(t, s.MarketValue.Equal(decimal.NewFromInt(510)))
	assert.True(t, s.LockedCollateral.Equal(decimal.NewFromInt(5000)))
	assert.True(t, s.ExecutionRate.Equal(decimal.NewFromFloat(0.5)), "rates derive from the rolled-up totals")
	assert.True(t, s.ProfitAndLoss.Equal(decimal.NewFromInt(10)))
	assert.Len(t, s.Records, 2)
}
