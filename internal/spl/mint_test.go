package spl

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"solana-token-forge/internal/pubkey"
)

// buildMintData assembles a raw mint layout for tests.
func buildMintData(mintAuth, freezeAuth *pubkey.Pubkey, supply uint64, decimals uint8, initialized bool) []byte {
	data := make([]byte, MintLayoutSize)
	if mintAuth != nil {
		binary.LittleEndian.PutUint32(data[0:4], 1)
		copy(data[4:36], mintAuth[:])
	}
	binary.LittleEndian.PutUint64(data[36:44], supply)
	data[44] = decimals
	if initialized {
		data[45] = 1
	}
	if freezeAuth != nil {
		binary.LittleEndian.PutUint32(data[46:50], 1)
		copy(data[50:82], freezeAuth[:])
	}
	return data
}

func TestParseMint(t *testing.T) {
	auth := pubkey.MustFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	freeze := pubkey.MustFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	m, err := ParseMint(buildMintData(&auth, &freeze, 1_000_000, 9, true))
	if err != nil {
		t.Fatalf("ParseMint: %v", err)
	}

	if m.MintAuthority == nil || *m.MintAuthority != auth {
		t.Errorf("mint authority = %v, want %s", m.MintAuthority, auth)
	}
	if m.FreezeAuthority == nil || *m.FreezeAuthority != freeze {
		t.Errorf("freeze authority = %v, want %s", m.FreezeAuthority, freeze)
	}
	if m.Supply != 1_000_000 {
		t.Errorf("supply = %d, want 1000000", m.Supply)
	}
	if m.Decimals != 9 {
		t.Errorf("decimals = %d, want 9", m.Decimals)
	}
}

func TestParseMintRevokedAuthorities(t *testing.T) {
	m, err := ParseMint(buildMintData(nil, nil, 42, 6, true))
	if err != nil {
		t.Fatalf("ParseMint: %v", err)
	}
	if m.MintAuthority != nil {
		t.Errorf("mint authority = %v, want nil", m.MintAuthority)
	}
	if m.FreezeAuthority != nil {
		t.Errorf("freeze authority = %v, want nil", m.FreezeAuthority)
	}
}

func TestParseMintRejectsWrongSize(t *testing.T) {
	for _, size := range []int{0, 81, 83, 165} {
		if _, err := ParseMint(make([]byte, size)); !errors.Is(err, ErrNotAMint) {
			t.Errorf("ParseMint(%d bytes) err = %v, want ErrNotAMint", size, err)
		}
	}
}

func TestParseMintRejectsUninitialized(t *testing.T) {
	if _, err := ParseMint(buildMintData(nil, nil, 0, 0, false)); !errors.Is(err, ErrNotAMint) {
		t.Errorf("err = %v, want ErrNotAMint", err)
	}
}

func TestParseMintBase64(t *testing.T) {
	auth := pubkey.MustFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	raw := buildMintData(&auth, nil, 500, 2, true)

	m, err := ParseMintBase64(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("ParseMintBase64: %v", err)
	}
	if m.Supply != 500 || m.Decimals != 2 {
		t.Errorf("got supply=%d decimals=%d, want 500/2", m.Supply, m.Decimals)
	}

	if _, err := ParseMintBase64("!!not-base64!!"); err == nil {
		t.Error("malformed base64 accepted")
	}
}
