// Package storage provides abstractions for the persistent debt store.
package storage

import (
	"context"

	"github.com/ketanvk/splitledger/internal/models"
)

// Store is the authoritative home of expenses and outstanding debts.
// Implementations must guarantee atomic multi-record writes and
// first-writer-wins conflict detection; they report outcomes through the
// error taxonomy in internal/ledger (ConflictError, NotFoundError).
//
// The abstraction allows swapping backends (embedded SQLite, a remote
// chaincode, PostgreSQL) without changing the service layer.
type Store interface {
	// CreateExpense persists an expense and its derived debts in one
	// transaction. Idempotent on the expense ID: re-sending the identical
	// expense is a no-op, a different expense under a taken ID is an error.
	CreateExpense(ctx context.Context, exp *models.Expense, debts []models.Debt) error

	// GetExpense retrieves an expense by its ID.
	// Returns *ledger.NotFoundError if it does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListDebts returns the snapshot of all outstanding debts. Order is
	// unspecified and an empty slice is a valid result.
	ListDebts(ctx context.Context) ([]models.Debt, error)

	// SettleDebt removes exactly the debt matching the key, records the
	// settlement in the journal, and reports:
	//   - nil on success,
	//   - *ledger.NotFoundError if no such outstanding debt exists,
	//   - *ledger.ConflictError if a concurrent writer won the race.
	SettleDebt(ctx context.Context, key models.DebtKey) error

	// ListSettlements returns the settlement journal, newest first.
	ListSettlements(ctx context.Context) ([]*models.SettlementRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
