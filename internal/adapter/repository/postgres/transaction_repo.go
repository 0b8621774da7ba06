package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new stock transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create appends a new transaction to the ledger
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO stock_transactions (
			id, date, action, bucket, instrument_code,
			quantity, price, fee, tax, purpose, note
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.Date,
		string(tx.Action),
		string(tx.Bucket),
		tx.InstrumentCode,
		tx.Quantity.String(),
		tx.Price.String(),
		tx.Fee.String(),
		tx.Tax.String(),
		tx.Purpose,
		tx.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// List retrieves the full ledger in date order
func (r *transactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	query := `
		SELECT id, date, action, bucket, instrument_code,
		       quantity, price, fee, tax, purpose, note
		FROM stock_transactions
		ORDER BY date, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var qtyStr, priceStr, feeStr, taxStr string

		if err := rows.Scan(
			&tx.ID, &tx.Date, &tx.Action, &tx.Bucket, &tx.InstrumentCode,
			&qtyStr, &priceStr, &feeStr, &taxStr, &tx.Purpose, &tx.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if tx.Quantity, err = decimal.NewFromString(qtyStr); err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		if tx.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		if tx.Fee, err = decimal.NewFromString(feeStr); err != nil {
			return nil, fmt.Errorf("failed to parse fee: %w", err)
		}
		if tx.Tax, err = decimal.NewFromString(taxStr); err != nil {
			return nil, fmt.Errorf("failed to parse tax: %w", err)
		}

		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}
