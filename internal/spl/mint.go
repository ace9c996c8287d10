// Package spl decodes on-chain SPL Token account layouts.
package spl

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"solana-token-forge/internal/pubkey"
)

// MintLayoutSize is the byte size of an SPL Token mint account.
const MintLayoutSize = 82

var ErrNotAMint = errors.New("account is not an initialized mint")

// Mint is the decoded state of an SPL Token mint account.
type Mint struct {
	MintAuthority   *pubkey.Pubkey // nil when revoked
	Supply          uint64
	Decimals        uint8
	Initialized     bool
	FreezeAuthority *pubkey.Pubkey // nil when revoked or never set
}

// ParseMint decodes the raw 82-byte mint layout:
//
//	[0:4]   mint authority COption tag (u32 LE)
//	[4:36]  mint authority
//	[36:44] supply (u64 LE)
//	[44]    decimals
//	[45]    initialized flag
//	[46:50] freeze authority COption tag (u32 LE)
//	[50:82] freeze authority
func ParseMint(data []byte) (*Mint, error) {
	if len(data) != MintLayoutSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrNotAMint, len(data), MintLayoutSize)
	}

	m := &Mint{
		Supply:      binary.LittleEndian.Uint64(data[36:44]),
		Decimals:    data[44],
		Initialized: data[45] == 1,
	}
	if !m.Initialized {
		return nil, ErrNotAMint
	}

	if binary.LittleEndian.Uint32(data[0:4]) == 1 {
		pk, err := pubkey.FromBytes(data[4:36])
		if err != nil {
			return nil, fmt.Errorf("mint authority: %w", err)
		}
		m.MintAuthority = &pk
	}
	if binary.LittleEndian.Uint32(data[46:50]) == 1 {
		pk, err := pubkey.FromBytes(data[50:82])
		if err != nil {
			return nil, fmt.Errorf("freeze authority: %w", err)
		}
		m.FreezeAuthority = &pk
	}

	return m, nil
}

// ParseMintBase64 decodes an RPC getAccountInfo base64 data payload.
func ParseMintBase64(data string) (*Mint, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return ParseMint(raw)
}
