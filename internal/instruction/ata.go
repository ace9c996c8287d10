package instruction

import (
	"fmt"

	"solana-token-forge/internal/pubkey"
)

// CreateAssociatedTokenAccount builds the instruction that creates the
// canonical associated token account for wallet+mint, funded by payer.
// Returns the derived account address alongside the instruction.
func CreateAssociatedTokenAccount(payer, wallet, mint pubkey.Pubkey) (Instruction, pubkey.Pubkey, error) {
	if payer.IsZero() || wallet.IsZero() || mint.IsZero() {
		return Instruction{}, pubkey.Pubkey{}, fmt.Errorf("%w: zero account in create-associated-account", ErrInvalidParameter)
	}

	ata, _, err := pubkey.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return Instruction{}, pubkey.Pubkey{}, fmt.Errorf("derive associated account: %w", err)
	}

	return Instruction{
		ProgramID: pubkey.AssociatedTokenProgram,
		Accounts: []AccountMeta{
			meta(payer, true, true),
			meta(ata, false, true),
			meta(wallet, false, false),
			meta(mint, false, false),
			meta(pubkey.SystemProgram, false, false),
			meta(pubkey.TokenProgram, false, false),
		},
		Data: nil,
	}, ata, nil
}
