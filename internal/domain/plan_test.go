package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMonthOf(t *testing.T) {
	got := MonthOf(time.Date(2026, 3, 21, 18, 45, 0, 0, time.FixedZone("CST", 8*3600)))
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "month must truncate to the first day, UTC")
}

func TestPlannedTotal_SumsBucketAcrossMonths(t *testing.T) {
	entries := []PlanEntry{
		{Bucket: BucketConservative, PlannedAmount: decimal.NewFromInt(300)},
		{Bucket: BucketConservative, PlannedAmount: decimal.NewFromInt(200)},
		{Bucket: BucketAggressive, PlannedAmount: decimal.NewFromInt(900)},
	}

	total := PlannedTotal(entries, BucketConservative)
	assert.True(t, total.Equal(decimal.NewFromInt(500)), "expected 500, got %s", total)

	assert.True(t, PlannedTotal(entries, BucketLottery).IsZero(), "bucket without entries totals zero")
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket(" conservative ")
	assert.NoError(t, err)
	assert.Equal(t, BucketConservative, b)

	_, err = ParseBucket("moonshot")
	assert.Error(t, err)
}

func TestPlanEntryValidate(t *testing.T) {
	entry := PlanEntry{
		ID:            uuid.New(),
		Month:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Bucket:        BucketLottery,
		PlannedAmount: decimal.NewFromInt(50),
		FXRate:        decimal.NewFromFloat(31.5),
	}
	assert.NoError(t, entry.Validate())

	negative := entry
	negative.PlannedAmount = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate(), "negative planned amount must fail validation")

	noFX := entry
	noFX.FXRate = decimal.Zero
	assert.Error(t, noFX.Validate(), "fx rate must be positive")
}
