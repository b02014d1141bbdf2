// Package local adapts a storage.Store to the ledger contract, so services
// run identically against the embedded store or a remote gateway. The op
// dispatch and payload codec here mirror what a remote backend would see.
package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/models"
	"github.com/ketanvk/splitledger/internal/storage"
)

// Ensure Backend implements the ledger contract.
var _ ledger.Ledger = (*Backend)(nil)

// Backend dispatches ledger operations to an embedded store.
type Backend struct {
	store storage.Store
}

// New creates a local backend over the given store.
func New(store storage.Store) *Backend {
	return &Backend{store: store}
}

// Invoke executes a mutating operation. The store provides atomicity and
// conflict detection; this layer only decodes the payload and dispatches.
func (b *Backend) Invoke(ctx context.Context, op string, payload []byte) ([]byte, error) {
	switch op {
	case ledger.OpCreateExpense:
		var req ledger.CreateExpenseRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, &ledger.TransportError{Op: op, Status: 400, Message: fmt.Sprintf("malformed payload: %v", err)}
		}
		if err := b.store.CreateExpense(ctx, &req.Expense, req.Debts); err != nil {
			return nil, err
		}
		return json.Marshal(req.Expense)

	case ledger.OpSettleDebt:
		var req ledger.SettleDebtRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, &ledger.TransportError{Op: op, Status: 400, Message: fmt.Sprintf("malformed payload: %v", err)}
		}
		key := models.DebtKey{From: req.From, To: req.To, ExpenseID: req.ExpenseID}
		if err := b.store.SettleDebt(ctx, key); err != nil {
			return nil, err
		}
		return []byte(`{}`), nil

	default:
		return nil, &ledger.TransportError{Op: op, Status: 400, Message: "unknown invoke operation"}
	}
}

// Query executes a read-only operation.
func (b *Backend) Query(ctx context.Context, op string, payload []byte) ([]byte, error) {
	switch op {
	case ledger.OpGetExpense:
		var req ledger.GetExpenseRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, &ledger.TransportError{Op: op, Status: 400, Message: fmt.Sprintf("malformed payload: %v", err)}
		}
		exp, err := b.store.GetExpense(ctx, req.ExpenseID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(exp)

	case ledger.OpQueryAllDebts:
		debts, err := b.store.ListDebts(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ledger.QueryAllDebtsResponse{Debts: debts})

	default:
		return nil, &ledger.TransportError{Op: op, Status: 400, Message: "unknown query operation"}
	}
}
