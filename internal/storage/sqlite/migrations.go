package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// The debts table carries a version column: it is the optimistic-concurrency
// token. Settlement deletes against a specific version, so two writers racing
// on the same debt cannot both win.
const schema = `
CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    amount INTEGER NOT NULL,
    payer TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_participants (
    expense_id TEXT NOT NULL,
    participant TEXT NOT NULL,
    PRIMARY KEY (expense_id, participant),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS debts (
    from_addr TEXT NOT NULL,
    to_addr TEXT NOT NULL,
    expense_id TEXT NOT NULL,
    amount INTEGER NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (from_addr, to_addr, expense_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    from_addr TEXT NOT NULL,
    to_addr TEXT NOT NULL,
    expense_id TEXT NOT NULL,
    amount INTEGER NOT NULL,
    settled_at INTEGER NOT NULL,
    note TEXT
);

CREATE INDEX IF NOT EXISTS idx_expense_participants_expense_id ON expense_participants(expense_id);
CREATE INDEX IF NOT EXISTS idx_debts_expense_id ON debts(expense_id);
CREATE INDEX IF NOT EXISTS idx_settlements_settled_at ON settlements(settled_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
