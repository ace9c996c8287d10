package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solana-token-forge/internal/composer"
	"solana-token-forge/internal/confirm"
	"solana-token-forge/internal/deeplink"
	"solana-token-forge/internal/orchestrator"
	"solana-token-forge/internal/ratelimit"
	"solana-token-forge/internal/security"
	"solana-token-forge/internal/solana"
	"solana-token-forge/internal/solana/stub"
	"solana-token-forge/internal/storage/memory"
)

const testCreatorAddr = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func testHandler(t *testing.T, limit ratelimit.Config) (http.Handler, *stub.RPCClient) {
	t.Helper()

	rpc := stub.NewRPCClient()
	rpc.RentExempt[82] = 1_461_600
	rpc.Balances[testCreatorAddr] = 10_000_000

	orch := orchestrator.New(orchestrator.Options{
		Limiter:   ratelimit.New(limit),
		Composer:  composer.New(rpc, composer.Config{}),
		Validator: security.NewValidator(security.Config{}),
		Encoder:   deeplink.NewEncoder(""),
		Poller: confirm.NewPoller(rpc, confirm.Config{
			MinDelay:    time.Millisecond,
			MaxDelay:    10 * time.Millisecond,
			Exponent:    2,
			MaxAttempts: 3,
		}),
		TokenRecordStore: memory.NewTokenRecordStore(),
		AuditEventStore:  memory.NewAuditEventStore(),
	})

	srv := newHTTPServer("127.0.0.1:0", orch, log.New(io.Discard, "", 0))
	return srv.Handler, rpc
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, decoded
}

const createBody = `{
	"user_id": "user-1",
	"creator": "` + testCreatorAddr + `",
	"name": "Forge Coin",
	"symbol": "FORGE",
	"decimals": 9,
	"initial_supply": 1000000
}`

func TestCreateTokenEndpoint(t *testing.T) {
	h, _ := testHandler(t, ratelimit.DefaultConfig())

	rec, body := doJSON(t, h, http.MethodPost, "/v1/tokens", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	link, _ := body["deep_link"].(string)
	if !strings.HasPrefix(link, "phantom://ul/v1/?tx=") {
		t.Errorf("deep_link = %q", link)
	}
	if mint, _ := body["mint"].(string); mint == "" {
		t.Error("mint missing from response")
	}

	// The new token shows up in the listing.
	rec, body = doJSON(t, h, http.MethodGet, "/v1/tokens?user=user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	tokens, _ := body["tokens"].([]interface{})
	if len(tokens) != 1 {
		t.Errorf("tokens = %d, want 1", len(tokens))
	}
}

func TestCreateTokenBadRequests(t *testing.T) {
	h, _ := testHandler(t, ratelimit.DefaultConfig())

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"user_id": `},
		{"invalid creator", strings.Replace(createBody, testCreatorAddr, "not-a-key", 1)},
		{"invalid metadata", strings.Replace(createBody, "Forge Coin", "", 1)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, _ := doJSON(t, h, http.MethodPost, "/v1/tokens", c.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateTokenRateLimited(t *testing.T) {
	h, _ := testHandler(t, ratelimit.Config{Requests: 1, Interval: time.Minute})

	rec, _ := doJSON(t, h, http.MethodPost, "/v1/tokens", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec, body := doJSON(t, h, http.MethodPost, "/v1/tokens", createBody)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	retry, _ := body["retry_after"].(float64)
	if retry < 1 || retry > 60 {
		t.Errorf("retry_after = %v", body["retry_after"])
	}
}

func TestCreateTokenInsufficientFunds(t *testing.T) {
	h, rpc := testHandler(t, ratelimit.DefaultConfig())
	rpc.Balances[testCreatorAddr] = 100

	rec, _ := doJSON(t, h, http.MethodPost, "/v1/tokens", createBody)
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", rec.Code)
	}
}

func TestListTokensRequiresUser(t *testing.T) {
	h, _ := testHandler(t, ratelimit.DefaultConfig())

	rec, _ := doJSON(t, h, http.MethodGet, "/v1/tokens", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConfirmationEndpoints(t *testing.T) {
	h, rpc := testHandler(t, ratelimit.DefaultConfig())
	rpc.Transactions["sig-1"] = &solana.TransactionStatus{Signature: "sig-1", Slot: 42}

	rec, body := doJSON(t, h, http.MethodPost, "/v1/confirmations",
		`{"user_id":"user-1","signature":"sig-1"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("track status = %d", rec.Code)
	}
	if body["status"] != "PENDING" {
		t.Errorf("initial status = %v", body["status"])
	}

	// The poller settles asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec, body = doJSON(t, h, http.MethodGet, "/v1/confirmations/sig-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status endpoint = %d", rec.Code)
		}
		if body["status"] == "CONFIRMED" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("confirmation never settled, last status = %v", body["status"])
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/v1/confirmations/sig-1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("cancel status = %d, want 204", rec.Code)
	}
}

func TestConfirmationUnknownSignature(t *testing.T) {
	h, _ := testHandler(t, ratelimit.DefaultConfig())

	rec, _ := doJSON(t, h, http.MethodGet, "/v1/confirmations/never-seen", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rec.Code)
	}
	rec, _ = doJSON(t, h, http.MethodDelete, "/v1/confirmations/never-seen", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete status = %d, want 404", rec.Code)
	}
}

func TestHealthAndStatus(t *testing.T) {
	h, _ := testHandler(t, ratelimit.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}

	rec, body := doJSON(t, h, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "running" {
		t.Errorf("status body = %v", body)
	}
}
