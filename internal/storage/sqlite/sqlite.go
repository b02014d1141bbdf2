// Package sqlite provides a SQLite-backed implementation of the storage.Store
// interface. It is the embedded transactional ledger: expense creation is one
// atomic multi-record write, and debt settlement is gated by a version check
// so the first writer wins.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlitedrv "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/models"
	"github.com/ketanvk/splitledger/internal/money"
	"github.com/ketanvk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Plain lock waits queue instead of failing immediately. Lock upgrades
	// that deadlock still return SQLITE_BUSY; those map to conflicts below.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateExpense persists the expense and its derived debts in one transaction.
// A recorded expense without its debts cannot be observed.
func (s *SQLiteStore) CreateExpense(ctx context.Context, exp *models.Expense, debts []models.Debt) error {
	if exp.CreatedAt == 0 {
		exp.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Idempotency on the expense ID: resending the same expense is a no-op,
	// a different expense under a taken ID is rejected.
	existing, err := getExpenseTx(ctx, tx, exp.ID)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		if isBusy(err) {
			return createConflict(exp.ID)
		}
		return err
	}
	if existing != nil {
		if sameExpense(existing, exp) {
			return nil // already applied
		}
		return &ledger.TransportError{
			Op:      ledger.OpCreateExpense,
			Status:  409,
			Message: fmt.Sprintf("expense %s already exists with different contents", exp.ID),
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses (id, description, amount, payer, created_at) VALUES (?, ?, ?, ?, ?)",
		exp.ID, exp.Description, int64(exp.Amount), exp.Payer, exp.CreatedAt,
	)
	if isBusy(err) {
		// A concurrent writer holds the lock. Retrying re-runs the
		// idempotency check, so a committed twin turns into a no-op.
		return createConflict(exp.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, p := range exp.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, participant) VALUES (?, ?)",
			exp.ID, p,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	now := time.Now().Unix()
	for _, d := range debts {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO debts (from_addr, to_addr, expense_id, amount, version, created_at) VALUES (?, ?, ?, ?, 1, ?)",
			d.From, d.To, d.ExpenseID, int64(d.Amount), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return createConflict(exp.ID)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func createConflict(expenseID string) *ledger.ConflictError {
	return &ledger.ConflictError{
		Op:      ledger.OpCreateExpense,
		Message: fmt.Sprintf("MVCC_READ_CONFLICT on expense %s", expenseID),
	}
}

// GetExpense retrieves an expense by ID, including its participant set.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback()

	return getExpenseTx(ctx, tx, expenseID)
}

func getExpenseTx(ctx context.Context, tx *sql.Tx, expenseID string) (*models.Expense, error) {
	exp := &models.Expense{}
	var amount int64
	err := tx.QueryRowContext(ctx,
		"SELECT id, description, amount, payer, created_at FROM expenses WHERE id = ?",
		expenseID,
	).Scan(&exp.ID, &exp.Description, &amount, &exp.Payer, &exp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "expense", Key: expenseID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	exp.Amount = money.Amount(amount)

	rows, err := tx.QueryContext(ctx,
		"SELECT participant FROM expense_participants WHERE expense_id = ? ORDER BY participant",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		exp.Participants = append(exp.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return exp, nil
}

// ListDebts returns all currently outstanding debts.
func (s *SQLiteStore) ListDebts(ctx context.Context) ([]models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT from_addr, to_addr, expense_id, amount, version FROM debts",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	debts := []models.Debt{}
	for rows.Next() {
		var d models.Debt
		var amount int64
		if err := rows.Scan(&d.From, &d.To, &d.ExpenseID, &amount, &d.Version); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		d.Amount = money.Amount(amount)
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return debts, nil
}

// SettleDebt removes the debt matching the key under a version check and
// journals the settlement in the same transaction.
func (s *SQLiteStore) SettleDebt(ctx context.Context, key models.DebtKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var amount, version int64
	err = tx.QueryRowContext(ctx,
		"SELECT amount, version FROM debts WHERE from_addr = ? AND to_addr = ? AND expense_id = ?",
		key.From, key.To, key.ExpenseID,
	).Scan(&amount, &version)
	if err == sql.ErrNoRows {
		// Already settled or never existed. A normal outcome, not a fault.
		return &ledger.NotFoundError{Kind: "debt", Key: debtKeyString(key)}
	}
	if isBusy(err) {
		return settleConflict(key)
	}
	if err != nil {
		return fmt.Errorf("failed to read debt: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM debts WHERE from_addr = ? AND to_addr = ? AND expense_id = ? AND version = ?",
		key.From, key.To, key.ExpenseID, version,
	)
	if isBusy(err) {
		return settleConflict(key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// The row was read but the versioned delete missed: another writer
		// committed in between. First writer wins; this one retries.
		return settleConflict(key)
	}

	if err := insertSettlementTx(ctx, tx, &models.SettlementRecord{
		From:      key.From,
		To:        key.To,
		ExpenseID: key.ExpenseID,
		Amount:    money.Amount(amount),
	}); err != nil {
		if isBusy(err) {
			return settleConflict(key)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return settleConflict(key)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// settleConflict is the conflict the retry loop acts on; the marker matches
// what the remote ledger emits.
func settleConflict(key models.DebtKey) *ledger.ConflictError {
	return &ledger.ConflictError{
		Op:      ledger.OpSettleDebt,
		Message: fmt.Sprintf("MVCC_READ_CONFLICT on debt %s", debtKeyString(key)),
	}
}

// isBusy reports whether err is a SQLite lock failure. Two transactions
// racing a read-then-write on the same rows deadlock on the lock upgrade and
// the loser gets SQLITE_BUSY without waiting for the busy timeout; that is
// this store's flavor of a first-writer-wins conflict, not a system fault.
func isBusy(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff { // primary result code
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func debtKeyString(key models.DebtKey) string {
	return fmt.Sprintf("%s->%s@%s", key.From, key.To, key.ExpenseID)
}

func sameExpense(a, b *models.Expense) bool {
	if a.Description != b.Description || a.Amount != b.Amount || a.Payer != b.Payer {
		return false
	}
	if len(a.Participants) != len(b.Participants) {
		return false
	}
	set := make(map[string]bool, len(a.Participants))
	for _, p := range a.Participants {
		set[p] = true
	}
	for _, p := range b.Participants {
		if !set[p] {
			return false
		}
	}
	return true
}
