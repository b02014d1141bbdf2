// Package gateway implements the ledger contract over a Kalp-style contract
// gateway: one HTTP endpoint per operation, split into invoke and query
// routes, authenticated with an API key header.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ketanvk/splitledger/internal/ledger"
)

// conflictMarker is the substring the backend embeds in the error message
// when an optimistic-concurrency check fails. It is the only signal that
// makes an invoke retryable.
const conflictMarker = "MVCC_READ_CONFLICT"

const defaultTimeout = 30 * time.Second

// Ensure Gateway implements the ledger contract.
var _ ledger.Ledger = (*Gateway)(nil)

// Gateway is an HTTP client for a remote transactional contract gateway.
// It is safe for concurrent use.
type Gateway struct {
	baseURL  string
	contract string
	apiKey   string
	client   *http.Client
}

// Config holds the connection parameters for a remote gateway.
type Config struct {
	// BaseURL is the gateway root, e.g. "https://gateway.example.com/v1/contract/kalp".
	BaseURL string
	// Contract is the deployed contract address the operations run against.
	Contract string
	// APIKey is sent in the x-api-key header on every call.
	APIKey string
	// Timeout bounds each individual HTTP call. A timeout is a transport
	// error, not a conflict, and is never retried here.
	Timeout time.Duration
}

// New creates a gateway client from the given config.
func New(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		contract: cfg.Contract,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// envelope is the request body the gateway expects: caller session state plus
// the operation arguments.
type envelope struct {
	Network       string          `json:"network"`
	Blockchain    string          `json:"blockchain"`
	WalletAddress string          `json:"walletAddress,omitempty"`
	Args          json.RawMessage `json:"args"`
}

// errorBody is the gateway's error response shape.
type errorBody struct {
	Message string `json:"message"`
}

// resultBody is the gateway's success response shape.
type resultBody struct {
	Result json.RawMessage `json:"result"`
}

// Invoke submits a state-mutating operation. Conflicts reported by the
// backend come back as *ledger.ConflictError so the client's retry loop can
// act on them; every other failure is a *ledger.TransportError.
func (g *Gateway) Invoke(ctx context.Context, op string, payload []byte) ([]byte, error) {
	return g.post(ctx, "invoke", op, payload)
}

// Query submits a read-only operation. Queries never conflict.
func (g *Gateway) Query(ctx context.Context, op string, payload []byte) ([]byte, error) {
	return g.post(ctx, "query", op, payload)
}

func (g *Gateway) post(ctx context.Context, verb, op string, payload []byte) ([]byte, error) {
	body, err := json.Marshal(envelope{
		Network:    "DEVNET",
		Blockchain: "KALP",
		Args:       payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway envelope: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/%s", g.baseURL, verb, g.contract, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &ledger.TransportError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ledger.TransportError{Op: op, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, g.mapError(op, resp.StatusCode, data)
	}

	var result resultBody
	if err := json.Unmarshal(data, &result); err != nil || result.Result == nil {
		// Some deployments return the result bare rather than wrapped.
		return data, nil
	}
	return result.Result, nil
}

// mapError classifies a non-2xx gateway response. The conflict marker in the
// message is the retry trigger; a 404 is an expected not-found outcome; the
// rest passes through unchanged with its status.
func (g *Gateway) mapError(op string, status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	msg := eb.Message
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}

	if strings.Contains(msg, conflictMarker) {
		return &ledger.ConflictError{Op: op, Message: msg}
	}
	if status == http.StatusNotFound {
		return &ledger.NotFoundError{Kind: "record", Key: msg}
	}
	return &ledger.TransportError{Op: op, Status: status, Message: msg}
}
