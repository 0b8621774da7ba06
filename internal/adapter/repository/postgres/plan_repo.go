package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// planRepository implements domain.PlanRepository
type planRepository struct {
	db *DB
}

// NewPlanRepository creates a new plan entry repository
func NewPlanRepository(db *DB) domain.PlanRepository {
	return &planRepository{db: db}
}

// Create appends a new plan entry
func (r *planRepository) Create(ctx context.Context, entry *domain.PlanEntry) error {
	query := `
		INSERT INTO plan_entries (id, month, bucket, planned_amount, fx_rate)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Month,
		string(entry.Bucket),
		entry.PlannedAmount.String(),
		entry.FXRate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan entry: %w", err)
	}

	return nil
}

// List retrieves all plan entries ordered by month
func (r *planRepository) List(ctx context.Context) ([]domain.PlanEntry, error) {
	query := `
		SELECT id, month, bucket, planned_amount, fx_rate
		FROM plan_entries
		ORDER BY month, bucket
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.PlanEntry
	for rows.Next() {
		var entry domain.PlanEntry
		var plannedStr, fxStr string

		if err := rows.Scan(&entry.ID, &entry.Month, &entry.Bucket, &plannedStr, &fxStr); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}

		if entry.PlannedAmount, err = decimal.NewFromString(plannedStr); err != nil {
			return nil, fmt.Errorf("failed to parse planned_amount: %w", err)
		}
		if entry.FXRate, err = decimal.NewFromString(fxStr); err != nil {
			return nil, fmt.Errorf("failed to parse fx_rate: %w", err)
		}

		entry.Normalize()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan entries: %w", err)
	}

	return entries, nil
}
