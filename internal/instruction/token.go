package instruction

import (
	"encoding/binary"
	"fmt"

	"solana-token-forge/internal/pubkey"
)

// SPL Token instruction tags (single byte).
const (
	tokInitializeMint uint8 = 0
	tokSetAuthority   uint8 = 6
	tokMintTo         uint8 = 7
)

// MintAccountLen is the serialized size of an SPL mint account.
// Used when sizing the rent-exempt balance for mint creation.
const MintAccountLen = 82

// MaxDecimals is the highest decimals value the builders accept.
const MaxDecimals = 18

// AuthorityType selects which mint authority a SetAuthority instruction
// changes.
type AuthorityType uint8

const (
	// AuthorityMintTokens controls who may mint new supply.
	AuthorityMintTokens AuthorityType = 0
	// AuthorityFreezeAccount controls who may freeze holder accounts.
	AuthorityFreezeAccount AuthorityType = 1
)

// InitializeMint builds the SPL Token instruction that configures a freshly
// created mint account. A nil freezeAuthority disables freezing permanently.
func InitializeMint(mint pubkey.Pubkey, decimals uint8, mintAuthority pubkey.Pubkey, freezeAuthority *pubkey.Pubkey) (Instruction, error) {
	if mint.IsZero() || mintAuthority.IsZero() {
		return Instruction{}, fmt.Errorf("%w: zero account in initialize-mint", ErrInvalidParameter)
	}
	if decimals > MaxDecimals {
		return Instruction{}, fmt.Errorf("%w: decimals %d out of range [0,%d]", ErrInvalidParameter, decimals, MaxDecimals)
	}

	// Layout: tag(1) | decimals(1) | mint_authority(32) | freeze_option(1) [| freeze_authority(32)]
	data := make([]byte, 0, 67)
	data = append(data, tokInitializeMint, decimals)
	data = append(data, mintAuthority[:]...)
	data = appendOptionalKey(data, freezeAuthority)

	return Instruction{
		ProgramID: pubkey.TokenProgram,
		Accounts: []AccountMeta{
			meta(mint, false, true),
			meta(pubkey.SysvarRent, false, false),
		},
		Data: data,
	}, nil
}

// MintTo builds the SPL Token instruction that mints amount base units to a
// destination token account. The mint authority must sign.
func MintTo(mint, dest, authority pubkey.Pubkey, amount uint64) (Instruction, error) {
	if mint.IsZero() || dest.IsZero() || authority.IsZero() {
		return Instruction{}, fmt.Errorf("%w: zero account in mint-to", ErrInvalidParameter)
	}
	if amount == 0 {
		return Instruction{}, fmt.Errorf("%w: mint-to amount must be positive", ErrInvalidParameter)
	}

	data := make([]byte, 1+8)
	data[0] = tokMintTo
	binary.LittleEndian.PutUint64(data[1:9], amount)

	return Instruction{
		ProgramID: pubkey.TokenProgram,
		Accounts: []AccountMeta{
			meta(mint, false, true),
			meta(dest, false, true),
			meta(authority, true, false),
		},
		Data: data,
	}, nil
}

// SetAuthority builds the SPL Token instruction that replaces an authority
// on the account. A nil newAuthority revokes the authority permanently.
func SetAuthority(account, currentAuthority pubkey.Pubkey, kind AuthorityType, newAuthority *pubkey.Pubkey) (Instruction, error) {
	if account.IsZero() || currentAuthority.IsZero() {
		return Instruction{}, fmt.Errorf("%w: zero account in set-authority", ErrInvalidParameter)
	}
	if kind != AuthorityMintTokens && kind != AuthorityFreezeAccount {
		return Instruction{}, fmt.Errorf("%w: authority type %d", ErrInvalidParameter, kind)
	}

	// Layout: tag(1) | authority_type(1) | new_authority_option(1) [| new_authority(32)]
	data := make([]byte, 0, 35)
	data = append(data, tokSetAuthority, uint8(kind))
	data = appendOptionalKey(data, newAuthority)

	return Instruction{
		ProgramID: pubkey.TokenProgram,
		Accounts: []AccountMeta{
			meta(account, false, true),
			meta(currentAuthority, true, false),
		},
		Data: data,
	}, nil
}

// appendOptionalKey encodes a COption<Pubkey>: a presence byte followed by
// the key bytes when present.
func appendOptionalKey(data []byte, pk *pubkey.Pubkey) []byte {
	if pk == nil {
		return append(data, 0)
	}
	data = append(data, 1)
	return append(data, pk[:]...)
}
