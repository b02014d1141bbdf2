// Package api exposes the ledger operations over the gateway wire protocol:
// one POST route per operation, split into invoke and query verbs, JSON
// bodies carrying caller session state plus typed args. A splitledger server
// in local mode is therefore itself a valid backend for the gateway client.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ketanvk/splitledger/internal/auth"
	"github.com/ketanvk/splitledger/internal/calculator"
	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/metrics"
	"github.com/ketanvk/splitledger/internal/middleware"
	"github.com/ketanvk/splitledger/internal/service"
	"github.com/ketanvk/splitledger/internal/storage"
)

// Server wires the services into HTTP handlers.
type Server struct {
	expenses    *service.ExpenseService
	settlements *service.SettlementService

	// journal is only available in local mode; nil in gateway mode.
	journal storage.Store

	limiter *middleware.WalletLimiter
	checker *auth.KeyChecker
}

// Options carries the optional server collaborators.
type Options struct {
	Journal storage.Store
	Limiter *middleware.WalletLimiter
	Checker *auth.KeyChecker
}

// New creates a Server.
func New(expenses *service.ExpenseService, settlements *service.SettlementService, opts Options) *Server {
	checker := opts.Checker
	if checker == nil {
		checker = auth.NewKeyChecker(nil)
	}
	return &Server{
		expenses:    expenses,
		settlements: settlements,
		journal:     opts.Journal,
		limiter:     opts.Limiter,
		checker:     checker,
	}
}

// Handler returns the full HTTP handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	contract := http.NewServeMux()
	contract.HandleFunc("POST /v1/contract/invoke/{contract}/{op}", s.handleInvoke)
	contract.HandleFunc("POST /v1/contract/query/{contract}/{op}", s.handleQuery)

	mux := http.NewServeMux()
	mux.Handle("/v1/contract/", middleware.RequireAPIKey(s.checker)(contract))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(handler)
	return handler
}

// requestBody is the wire envelope: caller-owned session state plus the
// operation arguments. The wallet address is a plain parameter, never
// ambient state.
type requestBody struct {
	Network       string          `json:"network"`
	Blockchain    string          `json:"blockchain"`
	WalletAddress string          `json:"walletAddress"`
	Args          json.RawMessage `json:"args"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	body, ok := s.decodeBody(w, r)
	if !ok {
		return
	}

	switch op {
	case ledger.OpCreateExpense:
		s.handleCreateExpense(w, r, body)
	case ledger.OpSettleDebt:
		s.handleSettleDebt(w, r, body)
	default:
		writeError(w, http.StatusBadRequest, "unknown invoke operation "+op)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	body, ok := s.decodeBody(w, r)
	if !ok {
		return
	}

	switch op {
	case ledger.OpGetExpense:
		s.handleGetExpense(w, r, body)
	case ledger.OpQueryAllDebts:
		s.handleQueryAllDebts(w, r)
	case "QueryBalances":
		s.handleQueryBalances(w, r)
	case "QuerySettlements":
		s.handleQuerySettlements(w, r)
	default:
		writeError(w, http.StatusBadRequest, "unknown query operation "+op)
	}
}

// decodeBody parses the envelope and applies the per-wallet rate limit.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (*requestBody, bool) {
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return nil, false
	}
	if !s.limiter.Allow(body.WalletAddress, time.Now()) {
		metrics.RateLimited.Inc()
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded for wallet")
		return nil, false
	}
	return &body, true
}

// writeResult writes the gateway success shape: {"result": ...}.
func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"result": result}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes the gateway error shape: {"message": ..., "status": ...}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"message": message,
		"status":  status,
	}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// writeLedgerError maps the error taxonomy onto HTTP statuses. Conflicts that
// survived the server-side retry keep the MVCC marker in the message so
// remote callers can run their own retry policy.
func writeLedgerError(w http.ResponseWriter, err error) {
	var vErr *calculator.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if errors.Is(err, ledger.ErrConflict) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	var te *ledger.TransportError
	if errors.As(err, &te) && te.Status != 0 {
		writeError(w, te.Status, te.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
