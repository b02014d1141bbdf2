package ledger

import (
	"errors"
	"fmt"
)

// ErrConflict matches any write-conflict error via errors.Is. It is the only
// condition the client retries.
var ErrConflict = errors.New("write conflict")

// ErrNotFound matches any not-found error via errors.Is. Settling an already
// settled debt lands here; callers treat it as "already gone", not a failure.
var ErrNotFound = errors.New("not found")

// ConflictError reports that the backend detected an optimistic-concurrency
// violation: another writer committed against the same record first.
type ConflictError struct {
	Op      string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: write conflict: %s", e.Op, e.Message)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConflictExhaustedError is the terminal form of a conflict that survived the
// whole retry budget. It is distinct from ConflictError so callers can tell
// "still contended after N tries" apart from a single collision.
type ConflictExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ConflictExhaustedError) Error() string {
	return fmt.Sprintf("%s: still conflicting after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *ConflictExhaustedError) Unwrap() error { return e.Last }

// NotFoundError reports that the addressed record does not exist in the
// outstanding set. This is an expected outcome, not a system fault.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportError carries a backend or network fault through unchanged: an
// HTTP-like status plus the backend's message. It is never retried by the
// client's own policy.
type TransportError struct {
	Op      string
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend error (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: backend error: %s", e.Op, e.Message)
}
