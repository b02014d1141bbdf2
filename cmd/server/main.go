package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ketanvk/splitledger/internal/api"
	"github.com/ketanvk/splitledger/internal/auth"
	"github.com/ketanvk/splitledger/internal/config"
	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/ledger/gateway"
	"github.com/ketanvk/splitledger/internal/ledger/local"
	"github.com/ketanvk/splitledger/internal/metrics"
	"github.com/ketanvk/splitledger/internal/middleware"
	"github.com/ketanvk/splitledger/internal/service"
	"github.com/ketanvk/splitledger/internal/storage/sqlite"
	"github.com/ketanvk/splitledger/pkg/logging"
)

func main() {
	logging.Setup()

	configPath := flag.String("config", "", "path to config file (default: configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var (
		backend ledger.Ledger
		opts    api.Options
	)
	switch cfg.Mode {
	case config.ModeGateway:
		backend = gateway.New(gateway.Config{
			BaseURL:  cfg.Gateway.BaseURL,
			Contract: cfg.Gateway.Contract,
			APIKey:   cfg.Gateway.APIKey,
			Timeout:  cfg.Gateway.Timeout.Std(),
		})
		slog.Info("Using remote gateway backend",
			"base_url", cfg.Gateway.BaseURL,
			"contract", cfg.Gateway.Contract,
		)

	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		backend = local.New(store)
		opts.Journal = store
		slog.Info("Using embedded ledger", "database", cfg.DBPath)
	}

	client := ledger.NewClient(backend,
		ledger.WithRetryPolicy(ledger.RetryPolicy{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay.Std(),
		}),
		ledger.WithRetryObserver(func(op string, attempt int, _ time.Duration) {
			metrics.InvokeRetries.WithLabelValues(op).Inc()
		}),
	)

	opts.Limiter = middleware.NewWalletLimiter(cfg.Limits.WalletRPS, cfg.Limits.WalletBurst, cfg.Limits.IdleTTL.Std())
	opts.Checker = auth.NewKeyChecker(cfg.APIKeyHashes)

	srv := api.New(
		service.NewExpenseService(client),
		service.NewSettlementService(client),
		opts,
	)

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	// HTTP/2 without TLS, for gRPC-style clients behind a TLS-terminating proxy.
	handler := h2c.NewHandler(mux, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Listen, "mode", cfg.Mode)
	if err := http.ListenAndServe(cfg.Listen, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
