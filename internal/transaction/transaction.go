// Package transaction sequences instructions into a single unsigned
// transaction and serializes it to the ledger wire format. The system never
// signs: signature slots are emitted as zeroed placeholders for the wallet
// to fill in.
package transaction

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-token-forge/internal/instruction"
	"solana-token-forge/internal/pubkey"
)

// MaxSerializedSize is the ledger's hard ceiling for a serialized
// transaction, signatures included.
const MaxSerializedSize = 1232

const signatureLen = 64

var (
	// ErrOversized is returned when the serialized transaction exceeds
	// MaxSerializedSize. Not retryable.
	ErrOversized = errors.New("transaction exceeds maximum serialized size")

	// ErrNoInstructions is returned when composing an empty transaction.
	ErrNoInstructions = errors.New("transaction has no instructions")

	// ErrInvalidBlockhash is returned for malformed blockhash input.
	ErrInvalidBlockhash = errors.New("invalid blockhash")
)

// Blockhash is a recent block hash anchoring the transaction.
type Blockhash [32]byte

// BlockhashFromBase58 parses a base58 blockhash string.
func BlockhashFromBase58(s string) (Blockhash, error) {
	var bh Blockhash
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != len(bh) {
		return bh, fmt.Errorf("%w: %q", ErrInvalidBlockhash, s)
	}
	copy(bh[:], raw)
	return bh, nil
}

// Transaction is an unsigned, ordered sequence of instructions with a
// designated fee payer. Created per user action, validated once, encoded
// once, then discarded.
type Transaction struct {
	FeePayer        pubkey.Pubkey
	RecentBlockhash Blockhash
	Instructions    []instruction.Instruction
}

// New builds an unsigned transaction. Instruction order is preserved
// verbatim through serialization.
func New(feePayer pubkey.Pubkey, blockhash Blockhash, instrs []instruction.Instruction) (*Transaction, error) {
	if feePayer.IsZero() {
		return nil, fmt.Errorf("%w: zero fee payer", instruction.ErrInvalidParameter)
	}
	if len(instrs) == 0 {
		return nil, ErrNoInstructions
	}
	copied := make([]instruction.Instruction, len(instrs))
	copy(copied, instrs)
	return &Transaction{
		FeePayer:        feePayer,
		RecentBlockhash: blockhash,
		Instructions:    copied,
	}, nil
}

// NumRequiredSignatures returns the signer count the compiled message
// advertises, fee payer included.
func (t *Transaction) NumRequiredSignatures() int {
	msg := t.compile()
	return int(msg.numRequiredSignatures)
}

// Serialize produces the full wire-format transaction: a compact array of
// zeroed signature placeholders followed by the compiled message. Returns
// ErrOversized when the result exceeds MaxSerializedSize.
func (t *Transaction) Serialize() ([]byte, error) {
	if len(t.Instructions) == 0 {
		return nil, ErrNoInstructions
	}

	msg := t.compile()
	msgBytes := msg.serialize()

	out := appendCompactU16(nil, uint16(msg.numRequiredSignatures))
	out = append(out, make([]byte, int(msg.numRequiredSignatures)*signatureLen)...)
	out = append(out, msgBytes...)

	if len(out) > MaxSerializedSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrOversized, len(out))
	}
	return out, nil
}
