// Package source defines where the historical transaction set comes from.
package source

import (
	"context"

	"fjacquet/spend-intel/internal/models"
)

// TransactionSource returns the full historical transaction set. Training and
// baseline recompute read it once per run.
type TransactionSource interface {
	Transactions(ctx context.Context) ([]models.Transaction, error)
	Name() string
}

// MemorySource serves a fixed slice of transactions.
type MemorySource struct {
	Items []models.Transaction
	Err   error
}

// NewMemorySource creates a source over txs.
func NewMemorySource(txs ...models.Transaction) *MemorySource {
	return &MemorySource{Items: txs}
}

// Name identifies the source in logs.
func (s *MemorySource) Name() string {
	return "memory"
}

// Transactions returns a copy of the configured transactions, or Err.
func (s *MemorySource) Transactions(ctx context.Context) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]models.Transaction, len(s.Items))
	copy(out, s.Items)
	return out, nil
}
