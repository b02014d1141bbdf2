package middleware

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WalletLimiter applies a token bucket per wallet address and periodically
// evicts idle entries.
type WalletLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewWalletLimiter creates a per-wallet limiter; returns nil if args are
// invalid. A nil limiter allows everything, so callers never need to branch.
func NewWalletLimiter(rps float64, burst int, idleTTL time.Duration) *WalletLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &WalletLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: idleTTL,
	}
}

// Allow reports whether one token can be consumed for the wallet at now.
// Requests without a wallet address are not limited here.
func (l *WalletLimiter) Allow(wallet string, now time.Time) bool {
	if l == nil {
		return true
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[wallet]
	if !ok {
		e = &limiterEntry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.byKey[wallet] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}
