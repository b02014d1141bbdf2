package calculator

import (
	"sort"

	"github.com/ketanvk/splitledger/internal/models"
	"github.com/ketanvk/splitledger/internal/money"
)

// ParticipantBalance summarizes one participant's position across all
// outstanding debts.
type ParticipantBalance struct {
	// Participant is the wallet address.
	Participant string `json:"participant"`

	// NetBalance is owed-to minus owed-by. Positive means the participant is
	// owed money, negative means they owe.
	NetBalance money.Amount `json:"netBalance"`

	// TotalOwedTo is the sum of outstanding debts where this participant is
	// the creditor.
	TotalOwedTo money.Amount `json:"totalOwedTo"`

	// TotalOwedBy is the sum of outstanding debts where this participant is
	// the debtor.
	TotalOwedBy money.Amount `json:"totalOwedBy"`
}

// NetBalances aggregates a snapshot of outstanding debts into per-participant
// balances, sorted by participant for a stable presentation. The snapshot
// itself has no ordering guarantee; this is a derived read-only view and the
// debts remain authoritative.
func NetBalances(debts []models.Debt) []ParticipantBalance {
	byParticipant := make(map[string]*ParticipantBalance)

	get := func(id string) *ParticipantBalance {
		b, ok := byParticipant[id]
		if !ok {
			b = &ParticipantBalance{Participant: id}
			byParticipant[id] = b
		}
		return b
	}

	for _, d := range debts {
		get(d.From).TotalOwedBy += d.Amount
		get(d.To).TotalOwedTo += d.Amount
	}

	balances := make([]ParticipantBalance, 0, len(byParticipant))
	for _, b := range byParticipant {
		b.NetBalance = b.TotalOwedTo - b.TotalOwedBy
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Participant < balances[j].Participant
	})
	return balances
}
