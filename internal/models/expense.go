package models

import "github.com/ketanvk/splitledger/internal/money"

// Expense represents a shared cost paid by one participant on behalf of a set
// of participants. Expenses are created once and never updated; the derived
// debts carry all downstream state.
type Expense struct {
	// ID is the caller-supplied identifier, globally unique per ledger.
	// Re-submitting the same ID with the same contents is an idempotent no-op.
	ID string `json:"expenseID"`

	// Description is a human-readable label for the expense (e.g. "Dinner").
	Description string `json:"description"`

	// Amount is the full expense amount in minor units (e.g. cents).
	Amount money.Amount `json:"amount"`

	// Payer is the participant who fronted the money. Always a member of
	// Participants.
	Payer string `json:"payer"`

	// Participants is the deduplicated set of people sharing the expense,
	// payer included. The boundary layer normalizes free-text input into this
	// form before it reaches the core.
	Participants []string `json:"participants"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt,omitempty"`
}

// Debt represents one directional obligation: From owes To the stated Amount
// in the context of ExpenseID. The natural key is (From, To, ExpenseID); the
// store guarantees at most one outstanding debt per key.
type Debt struct {
	// From is the participant who owes.
	From string `json:"from"`

	// To is the participant who is owed (the expense payer).
	To string `json:"to"`

	// Amount is the owed amount in minor units.
	Amount money.Amount `json:"amount"`

	// ExpenseID ties the debt back to the expense that created it.
	ExpenseID string `json:"expenseID"`

	// Version is the optimistic-concurrency token owned by the backend.
	// Zero for debts that have not been persisted yet.
	Version int64 `json:"version,omitempty"`
}

// Key returns the natural key of the debt, used for idempotent lookup and
// settlement.
func (d Debt) Key() DebtKey {
	return DebtKey{From: d.From, To: d.To, ExpenseID: d.ExpenseID}
}

// DebtKey identifies exactly one outstanding debt.
type DebtKey struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ExpenseID string `json:"expenseID"`
}
