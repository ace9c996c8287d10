package instruction

import (
	"encoding/binary"
	"fmt"

	"solana-token-forge/internal/pubkey"
)

// System Program instruction discriminants (u32 little-endian).
const (
	sysCreateAccount uint32 = 0
	sysTransfer      uint32 = 2
)

// CreateAccount builds a System Program instruction that creates a new
// account funded with lamports, allocated space bytes, and owned by owner.
// Both funder and the new account must sign.
func CreateAccount(funder, newAccount pubkey.Pubkey, lamports, space uint64, owner pubkey.Pubkey) (Instruction, error) {
	if funder.IsZero() || newAccount.IsZero() || owner.IsZero() {
		return Instruction{}, fmt.Errorf("%w: zero account in create-account", ErrInvalidParameter)
	}
	if lamports == 0 {
		return Instruction{}, fmt.Errorf("%w: create-account lamports must be positive", ErrInvalidParameter)
	}

	// Layout: discriminant(4) | lamports(8) | space(8) | owner(32)
	data := make([]byte, 4+8+8+32)
	binary.LittleEndian.PutUint32(data[0:4], sysCreateAccount)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:52], owner[:])

	return Instruction{
		ProgramID: pubkey.SystemProgram,
		Accounts: []AccountMeta{
			meta(funder, true, true),
			meta(newAccount, true, true),
		},
		Data: data,
	}, nil
}

// Transfer builds a System Program lamport transfer.
func Transfer(from, to pubkey.Pubkey, lamports uint64) (Instruction, error) {
	if from.IsZero() || to.IsZero() {
		return Instruction{}, fmt.Errorf("%w: zero account in transfer", ErrInvalidParameter)
	}
	if lamports == 0 {
		return Instruction{}, fmt.Errorf("%w: transfer lamports must be positive", ErrInvalidParameter)
	}

	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:4], sysTransfer)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: pubkey.SystemProgram,
		Accounts: []AccountMeta{
			meta(from, true, true),
			meta(to, false, true),
		},
		Data: data,
	}, nil
}
