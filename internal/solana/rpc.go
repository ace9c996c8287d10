package solana

import (
	"context"
	"encoding/json"
)

// RPCClient defines the read-only ledger RPC surface the engine consumes.
// The endpoint is treated as an opaque network service.
type RPCClient interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum
	// for an account of the given byte size.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash returns a recent blockhash for anchoring a new
	// transaction.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// GetTransaction retrieves a transaction by signature using jsonParsed
	// encoding. Returns nil if the ledger has not seen the signature yet.
	GetTransaction(ctx context.Context, signature string) (*TransactionStatus, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// TransactionStatus is the ledger's view of a broadcast transaction.
type TransactionStatus struct {
	Signature string
	Slot      int64
	BlockTime int64 // Unix timestamp (seconds), 0 when unavailable
	// Err is the on-chain execution error, nil on success.
	Err interface{}
	// Detail is the full jsonParsed result payload.
	Detail json.RawMessage
}

// Failed reports whether the transaction landed but its execution errored.
func (s *TransactionStatus) Failed() bool {
	return s != nil && s.Err != nil
}
