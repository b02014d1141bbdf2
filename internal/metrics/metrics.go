// Package metrics defines the Prometheus collectors for the splitledger
// server. Collectors are registered on the default registry and exposed via
// promhttp in cmd/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitledger_http_requests_total",
		Help: "HTTP requests processed, by route and status class.",
	}, []string{"route", "status"})

	// InvokeRetries counts ledger invoke retries caused by write conflicts.
	InvokeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitledger_invoke_retries_total",
		Help: "Ledger invoke retries triggered by write conflicts, by operation.",
	}, []string{"op"})

	// SettlementOutcomes counts terminal settlement states.
	SettlementOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitledger_settlements_total",
		Help: "Settlement requests by terminal outcome (settled, not_found, failed).",
	}, []string{"outcome"})

	// RateLimited counts requests rejected by the per-wallet rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitledger_rate_limited_total",
		Help: "Requests rejected by the per-wallet rate limiter.",
	})
)
