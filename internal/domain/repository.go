package domain

import (
	"context"
)

// PlanRepository defines the interface for plan entry persistence operations
type PlanRepository interface {
	// Create appends a new plan entry
	Create(ctx context.Context, entry *PlanEntry) error

	// List retrieves all plan entries
	// The plan dataset is small; the engine filters in memory
	List(ctx context.Context) ([]PlanEntry, error)
}

// AllocationRepository defines the interface for bucket allocation
// persistence operations
type AllocationRepository interface {
	// Create appends a new allocation row
	Create(ctx context.Context, row *BucketAllocation) error

	// List retrieves all allocation rows across buckets
	List(ctx context.Context) ([]BucketAllocation, error)
}

// TransactionRepository defines the interface for the append-only stock
// trade ledger
type TransactionRepository interface {
	// Create appends a new transaction; history is never mutated
	Create(ctx context.Context, tx *Transaction) error

	// List retrieves the full ledger in date order
	List(ctx context.Context) ([]Transaction, error)
}

// OptionRepository defines the interface for the append-only option ledger
type OptionRepository interface {
	// Create appends a new option position
	Create(ctx context.Context, pos *OptionPosition) error

	// List retrieves the full option ledger in trade-date order
	List(ctx context.Context) ([]OptionPosition, error)
}
