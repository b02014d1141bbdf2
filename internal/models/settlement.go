package models

import "github.com/ketanvk/splitledger/internal/money"

// SettlementRecord is the journal entry written when a debt is settled.
// It is a pure audit trail: the outstanding debt set remains authoritative,
// and a settlement never exists without the corresponding debt having been
// removed in the same transaction.
type SettlementRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// From is the debtor who settled up.
	From string `json:"from"`

	// To is the creditor who was paid.
	To string `json:"to"`

	// ExpenseID is the expense the settled debt belonged to.
	ExpenseID string `json:"expenseID"`

	// Amount is the settled amount in minor units.
	Amount money.Amount `json:"amount"`

	// SettledAt is the Unix timestamp when the settlement committed.
	SettledAt int64 `json:"settledAt"`

	// Note is an optional free-text annotation.
	Note string `json:"note,omitempty"`
}
