package instruction

import (
	"encoding/binary"
	"fmt"

	"solana-token-forge/internal/pubkey"
)

// Disable-selling bounds. The smart contract rejects longer lockups, so the
// builder does too.
const (
	MinDisableSellingDays = 1
	MaxDisableSellingDays = 7
)

// disableSellingDiscriminator is the 1-byte tag the smart contract matches.
const disableSellingDiscriminator uint8 = 0

// DisableSelling builds the smart-contract instruction that blocks transfers
// of a mint for the given number of days. The mint authority must sign.
func DisableSelling(program, mint, authority pubkey.Pubkey, days uint32) (Instruction, error) {
	if program.IsZero() || mint.IsZero() || authority.IsZero() {
		return Instruction{}, fmt.Errorf("%w: zero account in disable-selling", ErrInvalidParameter)
	}
	if days < MinDisableSellingDays || days > MaxDisableSellingDays {
		return Instruction{}, fmt.Errorf("%w: days %d out of range [%d,%d]",
			ErrInvalidParameter, days, MinDisableSellingDays, MaxDisableSellingDays)
	}

	// Layout: discriminator(1) | days(4, little-endian)
	data := make([]byte, 1+4)
	data[0] = disableSellingDiscriminator
	binary.LittleEndian.PutUint32(data[1:5], days)

	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			meta(mint, false, true),
			meta(authority, true, false),
			meta(pubkey.SysvarClock, false, false),
		},
		Data: data,
	}, nil
}
