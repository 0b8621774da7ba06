// Package reconcile composes the calculators into the per-instrument and
// per-bucket (planned, actual, market value, collateral) reconciliation —
// the engine's single externally-consumed output.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/allocator"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/collateral"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/costbasis"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/holdings"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/marketvalue"
)

// Service loads a fresh snapshot of the four datasets per request and runs
// the pure calculators over it. The service itself is stateless between
// invocations; all state lives in the repositories.
type Service struct {
	PlanRepo        domain.PlanRepository
	AllocationRepo  domain.AllocationRepository
	TransactionRepo domain.TransactionRepository
	OptionRepo      domain.OptionRepository

	Valuer *marketvalue.Service
	Policy domain.FeePolicy

	now func() time.Time // injectable clock for testing
}

// NewService creates a new reconciliation service
func NewService(
	planRepo domain.PlanRepository,
	allocationRepo domain.AllocationRepository,
	transactionRepo domain.TransactionRepository,
	optionRepo domain.OptionRepository,
	valuer *marketvalue.Service,
	policy domain.FeePolicy,
) *Service {
	return &Service{
		PlanRepo:        planRepo,
		AllocationRepo:  allocationRepo,
		TransactionRepo: transactionRepo,
		OptionRepo:      optionRepo,
		Valuer:          valuer,
		Policy:          policy,
		now:             time.Now,
	}
}

// WithClock overrides the service clock; used by tests to pin "today" for
// collateral expiry checks
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Snapshot loads an immutable copy of the four datasets
func (s *Service) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	plans, err := s.PlanRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan entries: %w", err)
	}
	allocations, err := s.AllocationRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	txs, err := s.TransactionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	options, err := s.OptionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load option positions: %w", err)
	}
	return &domain.Snapshot{
		Plans:        plans,
		Allocations:  allocations,
		Transactions: txs,
		Options:      options,
	}, nil
}

// Reconcile computes the reconciliation for a single bucket
func (s *Service) Reconcile(ctx context.Context, bucket domain.Bucket) (*domain.BucketSummary, []domain.Warning, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	summary, warnings := s.reconcileBucket(ctx, snap, bucket)
	return &summary, warnings, nil
}

// ReconcileAll computes the full report across all buckets plus grand
// totals and the option cash total
func (s *Service) ReconcileAll(ctx context.Context) (*domain.Report, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		GeneratedAt:      s.now().UTC(),
		TotalPlanned:     decimal.Zero,
		TotalActual:      decimal.Zero,
		TotalMarketValue: decimal.Zero,
		TotalCollateral:  decimal.Zero,
		OptionCashTotal:  domain.OptionCashTotal(snap.Options),
		ExecutionRate:    decimal.Zero,
	}

	if len(snap.Plans) == 0 {
		report.Warnings = append(report.Warnings, domain.Warning{
			Kind:    domain.WarningMissingData,
			Message: "plan dataset is empty; reconciliation reports zero planned amounts",
		})
	}

	for _, bucket := range domain.AllBuckets() {
		summary, warnings := s.reconcileBucket(ctx, snap, bucket)
		report.Buckets = append(report.Buckets, summary)
		report.Warnings = append(report.Warnings, warnings...)

		report.TotalPlanned = report.TotalPlanned.Add(summary.PlannedAmount)
		report.TotalActual = report.TotalActual.Add(summary.ActualCost)
		report.TotalMarketValue = report.TotalMarketValue.Add(summary.MarketValue)
		report.TotalCollateral = report.TotalCollateral.Add(summary.LockedCollateral)
	}

	// Overall execution rate counts option cash flow alongside stock buys.
	if report.TotalPlanned.IsPositive() {
		report.ExecutionRate = report.TotalActual.Add(report.OptionCashTotal).Div(report.TotalPlanned)
	}
	return report, nil
}

// reconcileBucket builds one bucket's records from the snapshot:
// distribute the planned total by weight, then per distribution compute
// cost basis, market value, and locked collateral.
func (s *Service) reconcileBucket(ctx context.Context, snap *domain.Snapshot, bucket domain.Bucket) (domain.BucketSummary, []domain.Warning) {
	planTotal := domain.PlannedTotal(snap.Plans, bucket)
	rows := domain.AllocationsFor(snap.Allocations, bucket)

	dists, warnings := allocator.Distribute(planTotal, rows)
	asOf := s.now()

	// Bucket-scoped collateral is computed once so a multi-instrument
	// bucket cannot double-count it across records.
	bucketCollateral, _ := collateral.Calculate(snap.Options, string(bucket), asOf)

	records := make([]domain.ReconciliationRecord, 0, len(dists))
	for _, dist := range dists {
		rec := domain.ReconciliationRecord{
			Bucket:         bucket,
			InstrumentCode: dist.InstrumentCode,
			PlannedAmount:  dist.PlannedAmount,
			ActualCost:     costbasis.Calculate(snap.Transactions, bucket, dist.InstrumentCode, s.Policy),
		}

		held := holdings.Calculate(snap.Transactions, bucket, dist.InstrumentCode)
		valuation := s.Valuer.Value(ctx, held)
		rec.MarketValue = valuation.Total
		for _, code := range valuation.Unavailable {
			warnings = append(warnings, domain.Warning{
				Kind:       domain.WarningQuoteUnavailable,
				Bucket:     bucket,
				Instrument: code,
				Message:    fmt.Sprintf("no quote for %s; market value reported without it", code),
			})
		}

		// Collateral is instrument-scoped for aggressive positions,
		// bucket-scoped otherwise. The bucket-scoped total sits on the
		// degenerate undistributed record when there is one.
		switch {
		case bucket == domain.BucketAggressive && dist.InstrumentCode != "":
			rec.LockedCollateral, _ = collateral.Calculate(snap.Options, dist.InstrumentCode, asOf)
		case dist.InstrumentCode == "":
			rec.LockedCollateral = bucketCollateral
		default:
			rec.LockedCollateral = decimal.Zero
		}

		rec.Derive()
		records = append(records, rec)
	}

	summary := domain.Summarize(bucket, records)
	if bucket != domain.BucketAggressive {
		summary.LockedCollateral = bucketCollateral
	}
	return summary, warnings
}
