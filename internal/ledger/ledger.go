// Package ledger defines the contract with the transactional backend and the
// retrying client that all services go through. The backend is an opaque
// store of record reachable through two verbs: Invoke mutates state under
// first-writer-wins conflict detection, Query reads it.
package ledger

import (
	"context"

	"github.com/ketanvk/splitledger/internal/models"
)

// Operation names understood by the backend contract.
const (
	OpCreateExpense = "CreateExpense"
	OpGetExpense    = "GetExpense"
	OpQueryAllDebts = "QueryAllDebts"
	OpSettleDebt    = "SettleDebt"
)

// Ledger abstracts the transactional backend. Implementations must guarantee
// atomic multi-record writes within one Invoke and report concurrent updates
// to the same key as a *ConflictError.
type Ledger interface {
	// Invoke executes a state-mutating operation. Payloads are canonical JSON
	// per the request types below; all mutations are idempotent at the payload
	// level so a retried call after an ambiguous failure cannot double-apply.
	Invoke(ctx context.Context, op string, payload []byte) ([]byte, error)

	// Query executes a read-only operation.
	Query(ctx context.Context, op string, payload []byte) ([]byte, error)
}

// CreateExpenseRequest carries an expense together with the debts the
// calculator derived from it. The backend persists both in one transaction; a
// recorded expense without its debts (or the reverse) must be impossible.
type CreateExpenseRequest struct {
	Expense models.Expense `json:"expense"`
	Debts   []models.Debt  `json:"debts"`
}

// GetExpenseRequest looks up one expense by its caller-supplied ID.
type GetExpenseRequest struct {
	ExpenseID string `json:"expenseID"`
}

// QueryAllDebtsRequest asks for the snapshot of all outstanding debts.
// It carries no parameters; the empty struct keeps the payload explicit.
type QueryAllDebtsRequest struct{}

// SettleDebtRequest identifies the one debt to remove by its natural key.
type SettleDebtRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ExpenseID string `json:"expenseID"`
}

// QueryAllDebtsResponse is the wire shape of the debt snapshot.
type QueryAllDebtsResponse struct {
	Debts []models.Debt `json:"debts"`
}
