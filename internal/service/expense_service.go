// Package service coordinates the expense-splitting and debt-settlement
// flows end to end. Services hold no mutable state of their own; everything
// shared lives behind the ledger, so they are safe to call concurrently.
package service

import (
	"context"
	"log/slog"

	"github.com/ketanvk/splitledger/internal/calculator"
	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/models"
)

// ExpenseService handles expense submission and lookups.
type ExpenseService struct {
	client *ledger.Client
}

// NewExpenseService creates an ExpenseService over the given ledger client.
func NewExpenseService(client *ledger.Client) *ExpenseService {
	return &ExpenseService{client: client}
}

// Submit validates an expense, fans it out into the equal-split debt set, and
// sends expense and debts to the ledger in one atomic create. Validation
// failures surface before any network call. On success the proposed debt set
// is returned.
func (s *ExpenseService) Submit(ctx context.Context, exp *models.Expense) ([]models.Debt, error) {
	if err := calculator.Validate(exp); err != nil {
		slog.Warn("Expense rejected", "expense_id", exp.ID, "error", err)
		return nil, err
	}

	debts := calculator.Split(exp)

	attempts, err := s.client.CreateExpense(ctx, ledger.CreateExpenseRequest{
		Expense: *exp,
		Debts:   debts,
	})
	if err != nil {
		slog.Error("CreateExpense failed",
			"expense_id", exp.ID,
			"attempts", attempts,
			"error", err,
		)
		return nil, err
	}

	slog.Info("Expense recorded",
		"expense_id", exp.ID,
		"payer", exp.Payer,
		"participants", len(exp.Participants),
		"debts", len(debts),
		"attempts", attempts,
	)
	return debts, nil
}

// Get looks up one expense by ID.
func (s *ExpenseService) Get(ctx context.Context, expenseID string) (*models.Expense, error) {
	return s.client.GetExpense(ctx, expenseID)
}

// ListDebts returns the current snapshot of outstanding debts.
func (s *ExpenseService) ListDebts(ctx context.Context) ([]models.Debt, error) {
	return s.client.QueryAllDebts(ctx)
}

// Balances returns the per-participant net position derived from the current
// debt snapshot.
func (s *ExpenseService) Balances(ctx context.Context) ([]calculator.ParticipantBalance, error) {
	debts, err := s.client.QueryAllDebts(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.NetBalances(debts), nil
}
