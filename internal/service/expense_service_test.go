package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ketanvk/splitledger/internal/calculator"
	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/models"
)

// countingLedger records invoke/query traffic so tests can prove validation
// happens before any network interaction.
type countingLedger struct {
	invokes int
	queries int
}

func (c *countingLedger) Invoke(ctx context.Context, op string, payload []byte) ([]byte, error) {
	c.invokes++
	return []byte(`{}`), nil
}

func (c *countingLedger) Query(ctx context.Context, op string, payload []byte) ([]byte, error) {
	c.queries++
	return []byte(`{"debts":[]}`), nil
}

func TestSubmit_RejectsInvalidBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		exp  *models.Expense
	}{
		{
			name: "non-positive amount",
			exp: &models.Expense{
				ID: "e1", Description: "x", Amount: 0,
				Payer: "A", Participants: []string{"A", "B"},
			},
		},
		{
			name: "empty description",
			exp: &models.Expense{
				ID: "e1", Description: "", Amount: 100,
				Payer: "A", Participants: []string{"A", "B"},
			},
		},
		{
			name: "payer missing from participants",
			exp: &models.Expense{
				ID: "e1", Description: "x", Amount: 100,
				Payer: "A", Participants: []string{"B", "C"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &countingLedger{}
			svc := NewExpenseService(ledger.NewClient(backend))

			_, err := svc.Submit(context.Background(), tt.exp)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var vErr *calculator.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected *calculator.ValidationError, got %T", err)
			}
			if backend.invokes != 0 || backend.queries != 0 {
				t.Errorf("validation must reject before network calls, saw %d invokes / %d queries",
					backend.invokes, backend.queries)
			}
		})
	}
}

func TestSubmit_SendsExpenseAndDebts(t *testing.T) {
	backend := &countingLedger{}
	svc := NewExpenseService(ledger.NewClient(backend))

	debts, err := svc.Submit(context.Background(), &models.Expense{
		ID:           "e1",
		Description:  "Dinner",
		Amount:       300,
		Payer:        "A",
		Participants: []string{"A", "B", "C"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(debts) != 2 {
		t.Errorf("expected 2 proposed debts, got %d", len(debts))
	}
	if backend.invokes != 1 {
		t.Errorf("expected 1 invoke, got %d", backend.invokes)
	}
}

func TestSubmit_SoloExpenseYieldsNoDebts(t *testing.T) {
	backend := &countingLedger{}
	svc := NewExpenseService(ledger.NewClient(backend))

	debts, err := svc.Submit(context.Background(), &models.Expense{
		ID:           "solo",
		Description:  "Coffee",
		Amount:       450,
		Payer:        "A",
		Participants: []string{"A"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(debts) != 0 {
		t.Errorf("expected no debts, got %v", debts)
	}
}
