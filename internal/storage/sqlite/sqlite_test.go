package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dinnerExpense() (*models.Expense, []models.Debt) {
	exp := &models.Expense{
		ID:           "e1",
		Description:  "Dinner",
		Amount:       300,
		Payer:        "A",
		Participants: []string{"A", "B", "C"},
	}
	debts := []models.Debt{
		{From: "B", To: "A", Amount: 100, ExpenseID: "e1"},
		{From: "C", To: "A", Amount: 100, ExpenseID: "e1"},
	}
	return exp, debts
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateExpense persists expense and debts atomically", func(t *testing.T) {
		exp, debts := dinnerExpense()
		if err := store.CreateExpense(ctx, exp, debts); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if exp.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetExpense(ctx, "e1")
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Description != "Dinner" || got.Amount != 300 || got.Payer != "A" {
			t.Errorf("unexpected expense: %+v", got)
		}
		if len(got.Participants) != 3 {
			t.Errorf("participants = %v, want 3 entries", got.Participants)
		}

		outstanding, err := store.ListDebts(ctx)
		if err != nil {
			t.Fatalf("ListDebts failed: %v", err)
		}
		if len(outstanding) != 2 {
			t.Errorf("expected 2 outstanding debts, got %d", len(outstanding))
		}
		for _, d := range outstanding {
			if d.Version == 0 {
				t.Errorf("debt %v should carry a version", d)
			}
		}
	})

	t.Run("CreateExpense is idempotent on the expense ID", func(t *testing.T) {
		exp, debts := dinnerExpense()
		if err := store.CreateExpense(ctx, exp, debts); err != nil {
			t.Fatalf("resending identical expense should be a no-op, got: %v", err)
		}

		outstanding, _ := store.ListDebts(ctx)
		if len(outstanding) != 2 {
			t.Errorf("resend must not duplicate debts, got %d", len(outstanding))
		}

		different, _ := dinnerExpense()
		different.Amount = 999
		err := store.CreateExpense(ctx, different, debts)
		if err == nil {
			t.Fatal("different expense under a taken ID must be rejected")
		}
		if errors.Is(err, ledger.ErrConflict) {
			t.Error("ID collision is not a retryable conflict")
		}
	})

	t.Run("GetExpense returns NotFound for unknown ID", func(t *testing.T) {
		_, err := store.GetExpense(ctx, "nonexistent")
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SettleDebt removes exactly one debt and journals it", func(t *testing.T) {
		key := models.DebtKey{From: "B", To: "A", ExpenseID: "e1"}
		if err := store.SettleDebt(ctx, key); err != nil {
			t.Fatalf("SettleDebt failed: %v", err)
		}

		outstanding, _ := store.ListDebts(ctx)
		if len(outstanding) != 1 {
			t.Fatalf("expected 1 debt left, got %d", len(outstanding))
		}
		if outstanding[0].From != "C" {
			t.Errorf("wrong debt settled: %+v", outstanding[0])
		}

		journal, err := store.ListSettlements(ctx)
		if err != nil {
			t.Fatalf("ListSettlements failed: %v", err)
		}
		if len(journal) != 1 {
			t.Fatalf("expected 1 settlement record, got %d", len(journal))
		}
		rec := journal[0]
		if rec.ID == "" || rec.SettledAt == 0 {
			t.Errorf("journal row missing ID or timestamp: %+v", rec)
		}
		if rec.From != "B" || rec.To != "A" || rec.Amount != 100 {
			t.Errorf("unexpected journal row: %+v", rec)
		}
	})

	t.Run("second settle on the same key returns NotFound", func(t *testing.T) {
		key := models.DebtKey{From: "B", To: "A", ExpenseID: "e1"}
		err := store.SettleDebt(ctx, key)
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("expected ErrNotFound for already-settled debt, got %v", err)
		}
	})

	t.Run("settling a never-existing key returns NotFound", func(t *testing.T) {
		err := store.SettleDebt(ctx, models.DebtKey{From: "X", To: "Y", ExpenseID: "nope"})
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListDebts is empty after everything settles", func(t *testing.T) {
		if err := store.SettleDebt(ctx, models.DebtKey{From: "C", To: "A", ExpenseID: "e1"}); err != nil {
			t.Fatalf("SettleDebt failed: %v", err)
		}

		outstanding, err := store.ListDebts(ctx)
		if err != nil {
			t.Fatalf("ListDebts failed: %v", err)
		}
		if len(outstanding) != 0 {
			t.Errorf("expected empty snapshot, got %v", outstanding)
		}
	})
}

func TestSettleDebt_ConcurrentSettlersFirstWriterWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exp, debts := dinnerExpense()
	if err := store.CreateExpense(ctx, exp, debts); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	key := models.DebtKey{From: "B", To: "A", ExpenseID: "e1"}
	const settlers = 8

	start := make(chan struct{})
	results := make(chan error, settlers)
	for i := 0; i < settlers; i++ {
		go func() {
			<-start
			results <- store.SettleDebt(ctx, key)
		}()
	}
	close(start)

	var settled, notFound, conflict int
	for i := 0; i < settlers; i++ {
		switch err := <-results; {
		case err == nil:
			settled++
		case errors.Is(err, ledger.ErrNotFound):
			notFound++
		case errors.Is(err, ledger.ErrConflict):
			conflict++
		default:
			// Losers must get taxonomy errors the client can act on,
			// never raw driver errors.
			t.Errorf("unclassified error from concurrent settle: %v", err)
		}
	}

	if settled != 1 {
		t.Errorf("settled = %d, want exactly 1 winner (notFound=%d conflict=%d)",
			settled, notFound, conflict)
	}
	if settled+notFound+conflict != settlers {
		t.Errorf("accounted for %d of %d settlers", settled+notFound+conflict, settlers)
	}

	// Exactly one journal row and exactly one removal.
	journal, err := store.ListSettlements(ctx)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(journal) != 1 {
		t.Errorf("expected 1 settlement record, got %d", len(journal))
	}
	outstanding, err := store.ListDebts(ctx)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(outstanding) != 1 || outstanding[0].From != "C" {
		t.Errorf("expected only C's debt to remain, got %v", outstanding)
	}
}

func TestSQLiteStore_SingleParticipantExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exp := &models.Expense{
		ID:           "solo",
		Description:  "Coffee",
		Amount:       450,
		Payer:        "A",
		Participants: []string{"A"},
	}
	if err := store.CreateExpense(ctx, exp, nil); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	outstanding, err := store.ListDebts(ctx)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(outstanding) != 0 {
		t.Errorf("solo expense must create no debts, got %v", outstanding)
	}
}
