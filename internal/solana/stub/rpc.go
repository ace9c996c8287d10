// Package stub provides an in-memory RPCClient for tests.
package stub

import (
	"context"
	"sync"

	"solana-token-forge/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Scripted errors are
// consumed once per call in FIFO order before the stored value is served,
// which lets tests model transient failures followed by success.
type RPCClient struct {
	mu sync.Mutex

	Balances     map[string]uint64
	RentExempt   map[uint64]uint64
	Accounts     map[string]*solana.AccountInfo
	Transactions map[string]*solana.TransactionStatus
	Blockhash    string

	balanceErrs map[string][]error
	txErrs      map[string][]error

	// TransactionCalls counts GetTransaction invocations per signature.
	TransactionCalls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:         make(map[string]uint64),
		RentExempt:       make(map[uint64]uint64),
		Accounts:         make(map[string]*solana.AccountInfo),
		Transactions:     make(map[string]*solana.TransactionStatus),
		Blockhash:        "GfVcyD4ksE9TcJ4PjLZ5PvaHj2j7XK6XBwJzFybkkTbh",
		balanceErrs:      make(map[string][]error),
		txErrs:           make(map[string][]error),
		TransactionCalls: make(map[string]int),
	}
}

// QueueBalanceError schedules an error for the next GetBalance call.
func (c *RPCClient) QueueBalanceError(pubkey string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceErrs[pubkey] = append(c.balanceErrs[pubkey], err)
}

// QueueTransactionError schedules an error for the next GetTransaction call.
func (c *RPCClient) QueueTransactionError(signature string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txErrs[signature] = append(c.txErrs[signature], err)
}

func popErr(m map[string][]error, key string) error {
	errs := m[key]
	if len(errs) == 0 {
		return nil
	}
	err := errs[0]
	m[key] = errs[1:]
	return err
}

// GetBalance returns the stored lamport balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := popErr(c.balanceErrs, pubkey); err != nil {
		return 0, err
	}
	return c.Balances[pubkey], nil
}

// GetMinimumBalanceForRentExemption returns the stored rent minimum.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.RentExempt[size], nil
}

// GetAccountInfo returns the stored account, or nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetLatestBlockhash returns the stub blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Blockhash, nil
}

// GetTransaction returns the stored status, or nil when the ledger has not
// seen the signature.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.TransactionStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TransactionCalls[signature]++
	if err := popErr(c.txErrs, signature); err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
