// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Expense: a shared cost paid by one participant on behalf of a set
//   - Debt: one directional obligation derived from an expense
//   - SettlementRecord: audit row written when a debt is settled
//
// Participants are opaque identifiers (wallet address strings). They have no
// lifecycle of their own; they exist only as references inside expenses and
// debts.
//
// # Design Principles
//
//  1. Expenses are immutable once created; there is no update operation.
//  2. Debts are never mutated in place. Settlement removes the debt from the
//     outstanding set, so a partially-applied amount change cannot exist.
//  3. Monetary amounts are int64 minor units (see internal/money). Floating
//     point never touches money.
//  4. Avoid circular references: models refer to each other by ID strings.
package models
