// Package instruction builds individual ledger instructions from typed,
// pre-validated parameters. Builders perform no I/O; the only failure mode
// is malformed input.
package instruction

import (
	"errors"

	"solana-token-forge/internal/pubkey"
)

// ErrInvalidParameter is returned when a builder receives malformed or
// out-of-range input.
var ErrInvalidParameter = errors.New("invalid instruction parameter")

// AccountMeta describes one account referenced by an instruction.
type AccountMeta struct {
	Pubkey     pubkey.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation: the target program, the
// ordered accounts it touches, and an opaque binary payload.
// Never mutated after creation.
type Instruction struct {
	ProgramID pubkey.Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// meta is shorthand for constructing an AccountMeta.
func meta(pk pubkey.Pubkey, signer, writable bool) AccountMeta {
	return AccountMeta{Pubkey: pk, IsSigner: signer, IsWritable: writable}
}
