package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcServer answers JSON-RPC requests with canned results per method.
func rpcServer(t *testing.T, results map[string]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %q", req.Method)
			result = "null"
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + jsonUint(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func jsonUint(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGetBalance(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getBalance": `{"context":{"slot":1},"value":5000000}`,
	})

	c := NewHTTPClient(srv.URL)
	got, err := c.GetBalance(context.Background(), "somekey")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got != 5_000_000 {
		t.Errorf("balance = %d, want 5000000", got)
	}
}

func TestGetMinimumBalanceForRentExemption(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getMinimumBalanceForRentExemption": `1461600`,
	})

	c := NewHTTPClient(srv.URL)
	got, err := c.GetMinimumBalanceForRentExemption(context.Background(), 82)
	if err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}
	if got != 1_461_600 {
		t.Errorf("rent = %d", got)
	}
}

func TestGetAccountInfo(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":{"lamports":2039280,"owner":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA","data":["AQID","base64"],"executable":false,"rentEpoch":361}}`,
	})

	c := NewHTTPClient(srv.URL)
	info, err := c.GetAccountInfo(context.Background(), "somekey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("info = nil")
	}
	if info.Lamports != 2_039_280 {
		t.Errorf("lamports = %d", info.Lamports)
	}
	if info.Owner != "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA" {
		t.Errorf("owner = %q", info.Owner)
	}
	if info.Data != "AQID" {
		t.Errorf("data = %q", info.Data)
	}
}

func TestGetAccountInfoAbsent(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	})

	c := NewHTTPClient(srv.URL)
	info, err := c.GetAccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("info = %+v, want nil for missing account", info)
	}
}

func TestGetLatestBlockhash(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getLatestBlockhash": `{"context":{"slot":1},"value":{"blockhash":"GfVcyD4ksE9TcJ4PjLZ5PvaHj2j7XK6XBwJzFybkkTbh","lastValidBlockHeight":100}}`,
	})

	c := NewHTTPClient(srv.URL)
	bh, err := c.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh != "GfVcyD4ksE9TcJ4PjLZ5PvaHj2j7XK6XBwJzFybkkTbh" {
		t.Errorf("blockhash = %q", bh)
	}
}

func TestGetTransactionUnseen(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getTransaction": `null`,
	})

	c := NewHTTPClient(srv.URL)
	status, err := c.GetTransaction(context.Background(), "sig")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if status != nil {
		t.Errorf("status = %+v, want nil for unseen signature", status)
	}
}

func TestGetTransactionFailed(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getTransaction": `{"slot":42,"blockTime":1700000000,"meta":{"err":{"InstructionError":[0,"InvalidAccountData"]}}}`,
	})

	c := NewHTTPClient(srv.URL)
	status, err := c.GetTransaction(context.Background(), "sig")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if status == nil {
		t.Fatal("status = nil")
	}
	if !status.Failed() {
		t.Error("Failed() = false for erroring transaction")
	}
	if status.Slot != 42 || status.BlockTime != 1_700_000_000 {
		t.Errorf("slot=%d blockTime=%d", status.Slot, status.BlockTime)
	}
}

func TestRPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	_, err := c.GetBalance(context.Background(), "key")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Error("protocol error reported as transient")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no retry on protocol errors)", got)
	}
}

func TestTransportErrorRetriedThenUnavailable(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	_, err := c.GetBalance(context.Background(), "key")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("err = %v, want transient", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", got)
	}
}

func TestTransientErrorRecovers(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":7}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	got, err := c.GetBalance(context.Background(), "key")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got != 7 {
		t.Errorf("balance = %d, want 7", got)
	}
}
