// Package calculator validates expenses and fans them out into pairwise debts.
// It performs no I/O; the service layer decides what to do with the proposed
// debt set.
package calculator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ketanvk/splitledger/internal/models"
	"github.com/ketanvk/splitledger/internal/money"
)

// ValidationError reports a rejected expense. It is raised before any network
// interaction and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid expense: %s %s", e.Field, e.Reason)
}

// Validate checks an expense against the model invariants:
// non-empty ID and description, positive amount, non-empty payer, and a
// duplicate-free participant set that includes the payer.
//
// The boundary layer is responsible for trimming and deduplicating free-text
// participant input; Validate rejects whatever survives that normalization in
// a bad state.
func Validate(exp *models.Expense) error {
	if strings.TrimSpace(exp.ID) == "" {
		return &ValidationError{Field: "expenseID", Reason: "must not be empty"}
	}
	if strings.TrimSpace(exp.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if exp.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if strings.TrimSpace(exp.Payer) == "" {
		return &ValidationError{Field: "payer", Reason: "must not be empty"}
	}
	if len(exp.Participants) == 0 {
		return &ValidationError{Field: "participants", Reason: "must not be empty"}
	}

	seen := make(map[string]bool, len(exp.Participants))
	payerFound := false
	for _, p := range exp.Participants {
		if seen[p] {
			return &ValidationError{Field: "participants", Reason: fmt.Sprintf("contains duplicate %q", p)}
		}
		seen[p] = true
		if p == exp.Payer {
			payerFound = true
		}
	}
	if !payerFound {
		return &ValidationError{Field: "participants", Reason: fmt.Sprintf("must include payer %q", exp.Payer)}
	}
	return nil
}

// Split fans a validated expense out into the equal-split debt set: every
// participant other than the payer owes amount/N to the payer.
//
// The division is integer math on minor units. The whole remainder goes to
// the lexicographically first non-payer, so the emitted debts plus the payer's
// own share always sum to the expense amount exactly. With a single
// participant (the payer alone) there is nothing to owe and the result is
// empty.
func Split(exp *models.Expense) []models.Debt {
	n := int64(len(exp.Participants))
	if n <= 1 {
		return nil
	}

	share := int64(exp.Amount) / n
	remainder := int64(exp.Amount) % n

	debtors := make([]string, 0, n-1)
	for _, p := range exp.Participants {
		if p != exp.Payer {
			debtors = append(debtors, p)
		}
	}
	sort.Strings(debtors)

	debts := make([]models.Debt, 0, len(debtors))
	for i, from := range debtors {
		owed := share
		if i == 0 {
			owed += remainder
		}
		debts = append(debts, models.Debt{
			From:      from,
			To:        exp.Payer,
			Amount:    money.Amount(owed),
			ExpenseID: exp.ID,
		})
	}
	return debts
}
