// Package memory provides in-memory dataset repositories. Used for testing
// and for running the server without a database (no persistence).
package memory

import (
	"context"
	"sync"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

// Store implements all four dataset repositories with mutex-guarded slices.
// List returns copies so callers can never mutate the stored ledgers.
type Store struct {
	mu           sync.RWMutex
	plans        []domain.PlanEntry
	allocations  []domain.BucketAllocation
	transactions []domain.Transaction
	options      []domain.OptionPosition
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{}
}

// Plans returns the store as a domain.PlanRepository
func (s *Store) Plans() domain.PlanRepository { return (*planRepo)(s) }

// Allocations returns the store as a domain.AllocationRepository
func (s *Store) Allocations() domain.AllocationRepository { return (*allocationRepo)(s) }

// Transactions returns the store as a domain.TransactionRepository
func (s *Store) Transactions() domain.TransactionRepository { return (*transactionRepo)(s) }

// Options returns the store as a domain.OptionRepository
func (s *Store) Options() domain.OptionRepository { return (*optionRepo)(s) }

type planRepo Store

func (r *planRepo) Create(_ context.Context, entry *domain.PlanEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, *entry)
	return nil
}

func (r *planRepo) List(_ context.Context) ([]domain.PlanEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PlanEntry, len(r.plans))
	copy(out, r.plans)
	return out, nil
}

type allocationRepo Store

func (r *allocationRepo) Create(_ context.Context, row *domain.BucketAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocations = append(r.allocations, *row)
	return nil
}

func (r *allocationRepo) List(_ context.Context) ([]domain.BucketAllocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BucketAllocation, len(r.allocations))
	copy(out, r.allocations)
	return out, nil
}

type transactionRepo Store

func (r *transactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *tx)
	return nil
}

func (r *transactionRepo) List(_ context.Context) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Transaction, len(r.transactions))
	copy(out, r.transactions)
	return out, nil
}

type optionRepo Store

func (r *optionRepo) Create(_ context.Context, pos *domain.OptionPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = append(r.options, *pos)
	return nil
}

func (r *optionRepo) List(_ context.Context) ([]domain.OptionPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OptionPosition, len(r.options))
	copy(out, r.options)
	return out, nil
}
