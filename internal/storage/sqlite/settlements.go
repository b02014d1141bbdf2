package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ketanvk/splitledger/internal/models"
	"github.com/ketanvk/splitledger/internal/money"
)

// insertSettlementTx journals a settlement inside the caller's transaction so
// the debt removal and the journal row commit or roll back together.
func insertSettlementTx(ctx context.Context, tx *sql.Tx, rec *models.SettlementRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SettledAt == 0 {
		rec.SettledAt = time.Now().Unix()
	}

	var note interface{} = nil
	if rec.Note != "" {
		note = rec.Note
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO settlements (id, from_addr, to_addr, expense_id, amount, settled_at, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.From, rec.To, rec.ExpenseID, int64(rec.Amount), rec.SettledAt, note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements retrieves the settlement journal, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context) ([]*models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_addr, to_addr, expense_id, amount, settled_at, note
		 FROM settlements ORDER BY settled_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var records []*models.SettlementRecord
	for rows.Next() {
		rec := &models.SettlementRecord{}
		var amount int64
		var note sql.NullString

		if err := rows.Scan(&rec.ID, &rec.From, &rec.To, &rec.ExpenseID, &amount, &rec.SettledAt, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		rec.Amount = money.Amount(amount)
		if note.Valid {
			rec.Note = note.String
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return records, nil
}
