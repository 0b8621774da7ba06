package csvstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

func sampleSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Plans: []domain.PlanEntry{{
			ID:            uuid.New(),
			Month:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Bucket:        domain.BucketConservative,
			PlannedAmount: decimal.NewFromInt(500),
			FXRate:        decimal.NewFromFloat(31.5),
		}},
		Allocations: []domain.BucketAllocation{{
			ID:             uuid.New(),
			Bucket:         domain.BucketAggressive,
			InstrumentCode: "TSLA",
			WeightPercent:  decimal.NewFromInt(100),
			FairValue:      decimal.NewFromInt(300),
			MarginTierPercents: [domain.NumMarginTiers]decimal.Decimal{
				decimal.NewFromInt(100), decimal.NewFromInt(93), decimal.NewFromInt(80),
				decimal.NewFromInt(70), decimal.NewFromInt(50),
			},
		}},
		Transactions: []domain.Transaction{{
			ID:             uuid.New(),
			Date:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Action:         domain.ActionBuy,
			Bucket:         domain.BucketConservative,
			InstrumentCode: "VOO",
			Quantity:       decimal.NewFromInt(2),
			Price:          decimal.NewFromInt(200),
			Purpose:        "monthly buy",
		}},
		Options: []domain.OptionPosition{{
			ID:            uuid.New(),
			TradeDate:     time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			Underlying:    "TSLA",
			Strike:        decimal.NewFromInt(250),
			Expiry:        time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC),
			Right:         domain.RightPut,
			Direction:     domain.DirectionSell,
			Contracts:     1,
			Premium:       decimal.NewFromFloat(3.5),
			Margin:        decimal.NewFromInt(5000),
			FundingSource: "AGGRESSIVE",
		}},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save(sampleSnapshot()))

	loaded, err := store.Load()
	require.NoError(t, err)

	require.Len(t, loaded.Plans, 1)
	plan := loaded.Plans[0]
	assert.Equal(t, domain.BucketConservative, plan.Bucket)
	assert.True(t, plan.Month.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, plan.PlannedAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, plan.FXRate.Equal(decimal.NewFromFloat(31.5)))

	require.Len(t, loaded.Allocations, 1)
	alloc := loaded.Allocations[0]
	assert.Equal(t, "TSLA", alloc.InstrumentCode)
	assert.True(t, alloc.MarginTierPercents[4].Equal(decimal.NewFromInt(50)))
	assert.True(t, alloc.TierWeightPercents[0].IsZero(), "unset tier weights survive as zero")

	require.Len(t, loaded.Transactions, 1)
	tx := loaded.Transactions[0]
	assert.Equal(t, domain.ActionBuy, tx.Action)
	assert.Equal(t, "monthly buy", tx.Purpose)
	assert.True(t, tx.Quantity.Equal(decimal.NewFromInt(2)))

	require.Len(t, loaded.Options, 1)
	opt := loaded.Options[0]
	assert.Equal(t, domain.RightPut, opt.Right)
	assert.True(t, opt.Margin.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, "AGGRESSIVE", opt.FundingSource)
}

func TestLoad_MissingFilesYieldEmptySnapshot(t *testing.T) {
	store := NewStore(t.TempDir())

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Plans)
	assert.Empty(t, snap.Allocations)
	assert.Empty(t, snap.Transactions)
	assert.Empty(t, snap.Options)
}

func TestLoad_MalformedRowReportsFileAndLine(t *testing.T) {
	dir := t.TempDir()
	content := "month,bucket,planned_amount,fx_rate\n2026-03,CONSERVATIVE,not-a-number,31.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlanFile), []byte(content), 0o644))

	_, err := NewStore(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), PlanFile)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoad_AcceptsFullDateAsMonth(t *testing.T) {
	dir := t.TempDir()
	content := "month,bucket,planned_amount,fx_rate\n2026-03-15,conservative,500,31.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlanFile), []byte(content), 0o644))

	snap, err := NewStore(dir).Load()
	require.NoError(t, err)
	require.Len(t, snap.Plans, 1)
	assert.True(t, snap.Plans[0].Month.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), "full dates normalize to the month start")
}
