package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// optionRepository implements domain.OptionRepository
type optionRepository struct {
	db *DB
}

// NewOptionRepository creates a new option position repository
func NewOptionRepository(db *DB) domain.OptionRepository {
	return &optionRepository{db: db}
}

// Create appends a new option position to the ledger
func (r *optionRepository) Create(ctx context.Context, pos *domain.OptionPosition) error {
	query := `
		INSERT INTO option_positions (
			id, trade_date, underlying, strike, expiry, opt_right, direction,
			contracts, premium, fee, margin, funding_source, strategy_note
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		pos.ID,
		pos.TradeDate,
		pos.Underlying,
		pos.Strike.String(),
		pos.Expiry,
		string(pos.Right),
		string(pos.Direction),
		pos.Contracts,
		pos.Premium.String(),
		pos.Fee.String(),
		pos.Margin.String(),
		pos.FundingSource,
		pos.StrategyNote,
	)
	if err != nil {
		return fmt.Errorf("failed to insert option position: %w", err)
	}

	return nil
}

// List retrieves the full option ledger in trade-date order
func (r *optionRepository) List(ctx context.Context) ([]domain.OptionPosition, error) {
	query := `
		SELECT id, trade_date, underlying, strike, expiry, opt_right, direction,
		       contracts, premium, fee, margin, funding_source, strategy_note
		FROM option_positions
		ORDER BY trade_date, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list option positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.OptionPosition
	for rows.Next() {
		var pos domain.OptionPosition
		var strikeStr, premiumStr, feeStr, marginStr string

		if err := rows.Scan(
			&pos.ID, &pos.TradeDate, &pos.Underlying, &strikeStr, &pos.Expiry,
			&pos.Right, &pos.Direction, &pos.Contracts,
			&premiumStr, &feeStr, &marginStr, &pos.FundingSource, &pos.StrategyNote,
		); err != nil {
			return nil, fmt.Errorf("failed to scan option position: %w", err)
		}

		if pos.Strike, err = decimal.NewFromString(strikeStr); err != nil {
			return nil, fmt.Errorf("failed to parse strike: %w", err)
		}
		if pos.Premium, err = decimal.NewFromString(premiumStr); err != nil {
			return nil, fmt.Errorf("failed to parse premium: %w", err)
		}
		if pos.Fee, err = decimal.NewFromString(feeStr); err != nil {
			return nil, fmt.Errorf("failed to parse fee: %w", err)
		}
		if pos.Margin, err = decimal.NewFromString(marginStr); err != nil {
			return nil, fmt.Errorf("failed to parse margin: %w", err)
		}

		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate option positions: %w", err)
	}

	return positions, nil
}
