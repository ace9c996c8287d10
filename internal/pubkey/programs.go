package pubkey

// Well-known program and sysvar addresses.
var (
	// SystemProgram owns all plain lamport accounts.
	SystemProgram = MustFromBase58("11111111111111111111111111111111")

	// TokenProgram is the SPL Token program.
	TokenProgram = MustFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenProgram derives and creates associated token accounts.
	AssociatedTokenProgram = MustFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// SysvarRent is the rent sysvar account.
	SysvarRent = MustFromBase58("SysvarRent111111111111111111111111111111111")

	// SysvarClock is the clock sysvar account.
	SysvarClock = MustFromBase58("SysvarC1ock11111111111111111111111111111111")
)

// FindAssociatedTokenAddress derives the canonical associated token account
// for a wallet and mint.
func FindAssociatedTokenAddress(wallet, mint Pubkey) (Pubkey, uint8, error) {
	return FindProgramAddress(
		[][]byte{wallet[:], TokenProgram[:], mint[:]},
		AssociatedTokenProgram,
	)
}
