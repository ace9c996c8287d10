// Package pubkey provides Solana account addresses and program-derived
// address computation.
package pubkey

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Size is the byte length of a Solana public key.
const Size = 32

// MaxSeedLength is the maximum byte length of a single PDA seed.
const MaxSeedLength = 32

// Pubkey is a 32-byte Solana account address.
type Pubkey [Size]byte

var (
	// ErrInvalidPubkey is returned for malformed base58 or wrong-length input.
	ErrInvalidPubkey = errors.New("invalid public key")

	// ErrNoViableBump is returned when no off-curve address exists for the
	// given seeds. Practically unreachable for random seeds.
	ErrNoViableBump = errors.New("unable to find viable program address bump")
)

// FromBase58 parses a base58-encoded address.
func FromBase58(s string) (Pubkey, error) {
	var pk Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %s", ErrInvalidPubkey, s)
	}
	if len(raw) != Size {
		return pk, fmt.Errorf("%w: decoded length %d", ErrInvalidPubkey, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustFromBase58 parses a base58 address and panics on failure.
// Intended for package-level constants only.
func MustFromBase58(s string) Pubkey {
	pk, err := FromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// FromBytes copies a 32-byte slice into a Pubkey.
func FromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != Size {
		return pk, fmt.Errorf("%w: byte length %d", ErrInvalidPubkey, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// String returns the base58 representation.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns a copy of the raw key bytes.
func (p Pubkey) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, p[:])
	return b
}

// IsZero reports whether the key is all zeroes.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// IsOnCurve reports whether the key is a valid ed25519 curve point.
// Program-derived addresses must be off-curve so that no private key can
// ever exist for them.
func (p Pubkey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(p[:])
	return err == nil
}

// pdaMarker terminates the hash input for program address derivation.
var pdaMarker = []byte("ProgramDerivedAddress")

// CreateProgramAddress derives an address from seeds and a program ID.
// Fails if the result lands on the ed25519 curve.
func CreateProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Pubkey{}, fmt.Errorf("%w: seed length %d exceeds %d", ErrInvalidPubkey, len(seed), MaxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write(pdaMarker)

	var pk Pubkey
	copy(pk[:], h.Sum(nil))
	if pk.IsOnCurve() {
		return Pubkey{}, ErrNoViableBump
	}
	return pk, nil
}

// FindProgramAddress searches bump seeds 255..0 for the first off-curve
// address. Returns the address and the bump that produced it.
func FindProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		bumped := make([][]byte, len(seeds), len(seeds)+1)
		copy(bumped, seeds)
		bumped = append(bumped, []byte{uint8(bump)})

		pk, err := CreateProgramAddress(bumped, program)
		if err == nil {
			return pk, uint8(bump), nil
		}
		if !errors.Is(err, ErrNoViableBump) {
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, ErrNoViableBump
}
