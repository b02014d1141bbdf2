package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ketanvk/splitledger/internal/ledger"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		BaseURL:  server.URL + "/v1/contract/kalp",
		Contract: "testcontract",
		APIKey:   "test-key",
	})
}

func TestInvoke_RoutesAndHeaders(t *testing.T) {
	var gotPath, gotKey string
	var gotBody envelope

	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Write([]byte(`{"result":{"ok":true}}`))
	})

	data, err := gw.Invoke(context.Background(), ledger.OpCreateExpense, []byte(`{"expenseID":"e1"}`))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if gotPath != "/v1/contract/kalp/invoke/testcontract/CreateExpense" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", gotKey)
	}
	if string(gotBody.Args) != `{"expenseID":"e1"}` {
		t.Errorf("args = %s", gotBody.Args)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("result = %s", data)
	}
}

func TestQuery_UsesQueryRoute(t *testing.T) {
	var gotPath string
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"result":{"debts":[]}}`))
	})

	if _, err := gw.Query(context.Background(), ledger.OpQueryAllDebts, []byte(`{}`)); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if gotPath != "/v1/contract/kalp/query/testcontract/QueryAllDebts" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestInvoke_ConflictDetection(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"transaction aborted: MVCC_READ_CONFLICT"}`))
	})

	_, err := gw.Invoke(context.Background(), ledger.OpSettleDebt, []byte(`{}`))
	if err == nil {
		t.Fatal("expected error")
	}
	var conflict *ledger.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ledger.ConflictError, got %T: %v", err, err)
	}
	if !errors.Is(err, ledger.ErrConflict) {
		t.Error("conflict should match ledger.ErrConflict")
	}
}

func TestInvoke_NotFoundMapping(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"debt does not exist"}`))
	})

	_, err := gw.Invoke(context.Background(), ledger.OpSettleDebt, []byte(`{}`))
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestInvoke_TransportErrorPassthrough(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"upstream unavailable"}`))
	})

	_, err := gw.Invoke(context.Background(), ledger.OpCreateExpense, []byte(`{}`))
	var te *ledger.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ledger.TransportError, got %T", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", te.Status)
	}
	if te.Message != "upstream unavailable" {
		t.Errorf("message = %q", te.Message)
	}
	// Transport errors must not look retryable.
	if errors.Is(err, ledger.ErrConflict) {
		t.Error("transport error must not match ErrConflict")
	}
}

func TestInvoke_BareResultBody(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"debts":[{"from":"B","to":"A","amount":100,"expenseID":"e1"}]}`))
	})

	data, err := gw.Query(context.Background(), ledger.OpQueryAllDebts, []byte(`{}`))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	var resp ledger.QueryAllDebtsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Debts) != 1 || resp.Debts[0].From != "B" {
		t.Errorf("unexpected debts: %+v", resp.Debts)
	}
}
