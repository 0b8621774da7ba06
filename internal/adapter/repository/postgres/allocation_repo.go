package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// allocationRepository implements domain.AllocationRepository
type allocationRepository struct {
	db *DB
}

// NewAllocationRepository creates a new bucket allocation repository
func NewAllocationRepository(db *DB) domain.AllocationRepository {
	return &allocationRepository{db: db}
}

// Create appends a new allocation row
func (r *allocationRepository) Create(ctx context.Context, row *domain.BucketAllocation) error {
	query := `
		INSERT INTO bucket_allocations (
			id, bucket, instrument_code, weight_percent, fair_value,
			margin_tier1, margin_tier2, margin_tier3, margin_tier4, margin_tier5,
			tier_weight1, tier_weight2, tier_weight3, tier_weight4, tier_weight5
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	args := []interface{}{
		row.ID,
		string(row.Bucket),
		row.InstrumentCode,
		row.WeightPercent.String(),
		row.FairValue.String(),
	}
	for i := 0; i < domain.NumMarginTiers; i++ {
		args = append(args, row.MarginTierPercents[i].String())
	}
	for i := 0; i < domain.NumMarginTiers; i++ {
		args = append(args, row.TierWeightPercents[i].String())
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert allocation row: %w", err)
	}

	return nil
}

// List retrieves all allocation rows across buckets
func (r *allocationRepository) List(ctx context.Context) ([]domain.BucketAllocation, error) {
	query := `
		SELECT id, bucket, instrument_code, weight_percent, fair_value,
		       margin_tier1, margin_tier2, margin_tier3, margin_tier4, margin_tier5,
		       tier_weight1, tier_weight2, tier_weight3, tier_weight4, tier_weight5
		FROM bucket_allocations
		ORDER BY bucket, instrument_code
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocation rows: %w", err)
	}
	defer rows.Close()

	var out []domain.BucketAllocation
	for rows.Next() {
		var row domain.BucketAllocation
		var weightStr, fairStr string
		var tierStrs [domain.NumMarginTiers]string
		var weightStrs [domain.NumMarginTiers]string

		dest := []interface{}{&row.ID, &row.Bucket, &row.InstrumentCode, &weightStr, &fairStr}
		for i := range tierStrs {
			dest = append(dest, &tierStrs[i])
		}
		for i := range weightStrs {
			dest = append(dest, &weightStrs[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}

		if row.WeightPercent, err = decimal.NewFromString(weightStr); err != nil {
			return nil, fmt.Errorf("failed to parse weight_percent: %w", err)
		}
		if row.FairValue, err = decimal.NewFromString(fairStr); err != nil {
			return nil, fmt.Errorf("failed to parse fair_value: %w", err)
		}
		for i := range tierStrs {
			if row.MarginTierPercents[i], err = decimal.NewFromString(tierStrs[i]); err != nil {
				return nil, fmt.Errorf("failed to parse margin_tier%d: %w", i+1, err)
			}
		}
		for i := range weightStrs {
			if row.TierWeightPercents[i], err = decimal.NewFromString(weightStrs[i]); err != nil {
				return nil, fmt.Errorf("failed to parse tier_weight%d: %w", i+1, err)
			}
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocation rows: %w", err)
	}

	return out, nil
}
