// Package seeder initializes empty datasets with first-run defaults: one
// zero-amount plan row per bucket for the current month, and a
// single-instrument aggressive allocation.
package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// DefaultFXRate is the USD→TWD reference rate stamped on seeded plan rows
var DefaultFXRate = decimal.NewFromFloat(31.5)

// Seeder handles first-run seeding of the plan and allocation datasets
type Seeder struct {
	PlanRepo       domain.PlanRepository
	AllocationRepo domain.AllocationRepository

	now func() time.Time
}

// NewSeeder creates a new Seeder instance
func NewSeeder(planRepo domain.PlanRepository, allocationRepo domain.AllocationRepository) *Seeder {
	return &Seeder{
		PlanRepo:       planRepo,
		AllocationRepo: allocationRepo,
		now:            time.Now,
	}
}

// Seed inserts defaults into any dataset that is empty. Non-empty datasets
// are left untouched.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedPlans(ctx); err != nil {
		return err
	}
	return s.seedAllocations(ctx)
}

func (s *Seeder) seedPlans(ctx context.Context) error {
	existing, err := s.PlanRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list plan entries: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	month := domain.MonthOf(s.now())
	for _, bucket := range domain.AllBuckets() {
		entry := &domain.PlanEntry{
			ID:            uuid.New(),
			Month:         month,
			Bucket:        bucket,
			PlannedAmount: decimal.Zero,
			FXRate:        DefaultFXRate,
		}
		if err := s.PlanRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to seed plan entry for %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *Seeder) seedAllocations(ctx context.Context) error {
	existing, err := s.AllocationRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list allocations: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	row := &domain.BucketAllocation{
		ID:             uuid.New(),
		Bucket:         domain.BucketAggressive,
		InstrumentCode: "TSLA",
		WeightPercent:  decimal.NewFromInt(100),
		FairValue:      decimal.NewFromInt(300),
		MarginTierPercents: [domain.NumMarginTiers]decimal.Decimal{
			decimal.NewFromInt(100),
			decimal.NewFromInt(93),
			decimal.NewFromInt(80),
			decimal.NewFromInt(70),
			decimal.NewFromInt(50),
		},
	}
	if err := s.AllocationRepo.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to seed default allocation: %w", err)
	}
	return nil
}
