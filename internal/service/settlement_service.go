package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/metrics"
	"github.com/ketanvk/splitledger/internal/models"
)

// SettleStatus is the terminal state of one settlement request.
type SettleStatus string

const (
	// StatusSettled means the debt was removed by this request.
	StatusSettled SettleStatus = "settled"

	// StatusNotFound means the debt was already gone. From the caller's
	// perspective this is a successful no-op, kept distinct for telemetry.
	StatusNotFound SettleStatus = "not_found"

	// StatusFailed means the request terminally failed, either because the
	// conflict budget ran out or because the backend rejected it.
	StatusFailed SettleStatus = "failed"
)

// SettleResult reports how a settlement request ended.
type SettleResult struct {
	Status   SettleStatus
	Attempts int

	// Debts is the fresh post-settlement snapshot, populated on Settled and
	// NotFound so the initiating caller reads their own write.
	Debts []models.Debt

	// Err carries the terminal error when Status is Failed.
	Err error
}

// SettlementService orchestrates settle requests end to end: resolve the
// debt through the retrying ledger client, classify the terminal outcome,
// and re-query the snapshot so observers get a consistent view.
type SettlementService struct {
	client *ledger.Client
}

// NewSettlementService creates a SettlementService over the given client.
func NewSettlementService(client *ledger.Client) *SettlementService {
	return &SettlementService{client: client}
}

// Settle drives one settlement request to a terminal state. Transient
// conflicts are retried inside the ledger client; by the time control
// returns here the outcome is final: settled, already gone, or failed.
// The returned error is non-nil only for StatusFailed.
func (s *SettlementService) Settle(ctx context.Context, key models.DebtKey) (*SettleResult, error) {
	attempts, err := s.client.SettleDebt(ctx, ledger.SettleDebtRequest{
		From:      key.From,
		To:        key.To,
		ExpenseID: key.ExpenseID,
	})
	result := &SettleResult{Attempts: attempts}

	switch {
	case err == nil:
		result.Status = StatusSettled
		metrics.SettlementOutcomes.WithLabelValues(string(StatusSettled)).Inc()
		slog.Info("Debt settled",
			"from", key.From,
			"to", key.To,
			"expense_id", key.ExpenseID,
			"attempts", attempts,
		)

	case errors.Is(err, ledger.ErrNotFound):
		// Already settled, or never existed. The debt is gone either way.
		result.Status = StatusNotFound
		metrics.SettlementOutcomes.WithLabelValues(string(StatusNotFound)).Inc()
		slog.Info("Debt already gone",
			"from", key.From,
			"to", key.To,
			"expense_id", key.ExpenseID,
		)

	default:
		result.Status = StatusFailed
		result.Err = err
		metrics.SettlementOutcomes.WithLabelValues(string(StatusFailed)).Inc()

		var exhausted *ledger.ConflictExhaustedError
		if errors.As(err, &exhausted) {
			slog.Error("Settlement still contended after retries",
				"from", key.From,
				"to", key.To,
				"expense_id", key.ExpenseID,
				"attempts", exhausted.Attempts,
			)
		} else {
			slog.Error("Settlement failed",
				"from", key.From,
				"to", key.To,
				"expense_id", key.ExpenseID,
				"error", err,
			)
		}
		return result, err
	}

	// Read-your-writes: hand the caller the post-settlement snapshot.
	debts, err := s.client.QueryAllDebts(ctx)
	if err != nil {
		slog.Warn("Post-settlement snapshot failed", "error", err)
		return result, nil
	}
	result.Debts = debts
	return result, nil
}
