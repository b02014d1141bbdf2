package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ketanvk/splitledger/internal/models"
)

// Retry policy defaults. The backoff is linear on purpose: the original
// contention profile was tuned for delay = base × attempt, and an exponential
// curve would change behavior under load.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000 * time.Millisecond
)

// RetryPolicy bounds the conflict-retry loop applied to Invoke calls.
type RetryPolicy struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries int

	// BaseDelay is the unit of the linear backoff: the wait before attempt
	// k+1 is BaseDelay × k.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the production policy: 3 attempts, 1s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Client wraps a Ledger with typed operations and the conflict-retry loop.
// It is safe for concurrent use; all mutable state lives in the backend.
type Client struct {
	ledger Ledger
	policy RetryPolicy

	// onRetry, when set, observes every backoff before it is applied.
	// Used for metrics and logging; it must not block.
	onRetry func(op string, attempt int, delay time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry bounds.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		if p.MaxRetries > 0 {
			c.policy.MaxRetries = p.MaxRetries
		}
		if p.BaseDelay > 0 {
			c.policy.BaseDelay = p.BaseDelay
		}
	}
}

// WithRetryObserver registers a hook called before each backoff delay.
func WithRetryObserver(fn func(op string, attempt int, delay time.Duration)) Option {
	return func(c *Client) { c.onRetry = fn }
}

// NewClient creates a client over the given backend.
func NewClient(l Ledger, opts ...Option) *Client {
	c := &Client{ledger: l, policy: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateExpense submits an expense and its derived debts for atomic
// persistence. Idempotent on the expense ID.
func (c *Client) CreateExpense(ctx context.Context, req CreateExpenseRequest) (int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode create request: %w", err)
	}
	_, attempts, err := c.invoke(ctx, OpCreateExpense, payload)
	return attempts, err
}

// SettleDebt removes the debt addressed by the request key. Returns the
// number of attempts taken so callers can log and meter contention.
func (c *Client) SettleDebt(ctx context.Context, req SettleDebtRequest) (int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode settle request: %w", err)
	}
	_, attempts, err := c.invoke(ctx, OpSettleDebt, payload)
	return attempts, err
}

// GetExpense looks up one expense by ID.
func (c *Client) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	payload, err := json.Marshal(GetExpenseRequest{ExpenseID: expenseID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode get request: %w", err)
	}
	data, err := c.ledger.Query(ctx, OpGetExpense, payload)
	if err != nil {
		return nil, err
	}
	var exp models.Expense
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to decode expense: %w", err)
	}
	return &exp, nil
}

// QueryAllDebts returns the snapshot of outstanding debts. Order is
// unspecified; an empty snapshot is a normal result.
func (c *Client) QueryAllDebts(ctx context.Context) ([]models.Debt, error) {
	payload, err := json.Marshal(QueryAllDebtsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to encode debts request: %w", err)
	}
	data, err := c.ledger.Query(ctx, OpQueryAllDebts, payload)
	if err != nil {
		return nil, err
	}
	var resp QueryAllDebtsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode debts: %w", err)
	}
	return resp.Debts, nil
}

// invoke runs the bounded retry loop around Ledger.Invoke. Only conflict
// errors are retried; everything else propagates on the first attempt. After
// the final conflicting attempt the error becomes *ConflictExhaustedError.
func (c *Client) invoke(ctx context.Context, op string, payload []byte) ([]byte, int, error) {
	var last error
	for attempt := 1; attempt <= c.policy.MaxRetries; attempt++ {
		data, err := c.ledger.Invoke(ctx, op, payload)
		if err == nil {
			return data, attempt, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, attempt, err
		}
		last = err
		if attempt == c.policy.MaxRetries {
			break
		}

		delay := c.policy.BaseDelay * time.Duration(attempt)
		slog.Debug("Invoke conflicted, backing off",
			"op", op,
			"attempt", attempt,
			"delay_ms", delay.Milliseconds(),
		)
		if c.onRetry != nil {
			c.onRetry(op, attempt, delay)
		}
		select {
		case <-ctx.Done():
			// Abandoning between attempts is fine: the payload key is
			// idempotent, so a prior attempt that silently committed stays
			// correct if the caller resubmits later.
			return nil, attempt, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, c.policy.MaxRetries, &ConflictExhaustedError{
		Op:       op,
		Attempts: c.policy.MaxRetries,
		Last:     last,
	}
}
