package api

import (
	"encoding/json"
	"net/http"

	"github.com/ketanvk/splitledger/internal/calculator"
	"github.com/ketanvk/splitledger/internal/ledger"
	"github.com/ketanvk/splitledger/internal/models"
	"github.com/ketanvk/splitledger/internal/service"
)

// handleCreateExpense records an expense. The debts field of the wire payload
// is advisory: the split is recomputed server-side so a forwarded pre-split
// request and a bare expense produce the same ledger state.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, body *requestBody) {
	var req ledger.CreateExpenseRequest
	if err := json.Unmarshal(body.Args, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed CreateExpense args: "+err.Error())
		return
	}

	debts, err := s.expenses.Submit(r.Context(), &req.Expense)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if debts == nil {
		debts = []models.Debt{}
	}
	writeResult(w, map[string]interface{}{
		"expenseID": req.Expense.ID,
		"debts":     debts,
	})
}

// handleSettleDebt drives one settlement to its terminal state. An
// already-gone debt is reported as 404 so remote clients can apply their own
// no-op handling; a conflict that survived the retry budget keeps the MVCC
// marker in the 409 body.
func (s *Server) handleSettleDebt(w http.ResponseWriter, r *http.Request, body *requestBody) {
	var req ledger.SettleDebtRequest
	if err := json.Unmarshal(body.Args, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed SettleDebt args: "+err.Error())
		return
	}
	if req.From == "" || req.To == "" || req.ExpenseID == "" {
		writeError(w, http.StatusBadRequest, "from, to and expenseID are required")
		return
	}

	result, err := s.settlements.Settle(r.Context(), models.DebtKey{
		From:      req.From,
		To:        req.To,
		ExpenseID: req.ExpenseID,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if result.Status == service.StatusNotFound {
		writeError(w, http.StatusNotFound,
			"debt "+req.From+"->"+req.To+"@"+req.ExpenseID+" not found")
		return
	}

	debts := result.Debts
	if debts == nil {
		debts = []models.Debt{}
	}
	writeResult(w, map[string]interface{}{
		"status":   result.Status,
		"attempts": result.Attempts,
		"debts":    debts,
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, body *requestBody) {
	var req ledger.GetExpenseRequest
	if err := json.Unmarshal(body.Args, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed GetExpense args: "+err.Error())
		return
	}
	if req.ExpenseID == "" {
		writeError(w, http.StatusBadRequest, "expenseID is required")
		return
	}

	exp, err := s.expenses.Get(r.Context(), req.ExpenseID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeResult(w, exp)
}

func (s *Server) handleQueryAllDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.expenses.ListDebts(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if debts == nil {
		debts = []models.Debt{}
	}
	writeResult(w, ledger.QueryAllDebtsResponse{Debts: debts})
}

func (s *Server) handleQueryBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.expenses.Balances(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if balances == nil {
		balances = []calculator.ParticipantBalance{}
	}
	writeResult(w, map[string]interface{}{"balances": balances})
}

// handleQuerySettlements serves the settlement journal. Only the embedded
// store keeps a journal; in gateway mode the endpoint reports unsupported.
func (s *Server) handleQuerySettlements(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotImplemented, "settlement journal is not available in gateway mode")
		return
	}
	records, err := s.journal.ListSettlements(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if records == nil {
		records = []*models.SettlementRecord{}
	}
	writeResult(w, map[string]interface{}{"settlements": records})
}
