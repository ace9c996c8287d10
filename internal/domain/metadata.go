package domain

import (
	"fmt"
	"regexp"
)

// Metadata limits.
const (
	MaxNameLength        = 30
	MaxSymbolLength      = 10
	MaxDecimals          = 18
	MaxDescriptionLength = 200

	// MaxInitialSupply is one quintillion base units.
	MaxInitialSupply = uint64(1e18)
)

var (
	nameRe   = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
	symbolRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// ValidationError reports the specific constraint a metadata field violated.
// Surfaced verbatim to the user; never reaches the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TokenMetadata is the user-supplied description of a token to create.
// Immutable once handed to the composer.
type TokenMetadata struct {
	Name          string
	Symbol        string
	Decimals      int
	InitialSupply uint64 // base units minted to the creator's account
	ImageURL      string // optional, opaque content reference
	Description   string // optional
}

// Validate checks every field and returns the first violated constraint.
// Must pass before any ledger interaction is attempted.
func (m *TokenMetadata) Validate() error {
	if m.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if len(m.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("longer than %d characters", MaxNameLength)}
	}
	if !nameRe.MatchString(m.Name) {
		return &ValidationError{Field: "name", Reason: "only letters, digits and spaces allowed"}
	}

	if m.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "required"}
	}
	if len(m.Symbol) > MaxSymbolLength {
		return &ValidationError{Field: "symbol", Reason: fmt.Sprintf("longer than %d characters", MaxSymbolLength)}
	}
	if !symbolRe.MatchString(m.Symbol) {
		return &ValidationError{Field: "symbol", Reason: "only letters and digits allowed"}
	}

	if m.Decimals < 0 || m.Decimals > MaxDecimals {
		return &ValidationError{Field: "decimals", Reason: fmt.Sprintf("must be between 0 and %d", MaxDecimals)}
	}

	if m.InitialSupply == 0 {
		return &ValidationError{Field: "initial_supply", Reason: "must be positive"}
	}
	if m.InitialSupply > MaxInitialSupply {
		return &ValidationError{Field: "initial_supply", Reason: "exceeds one quintillion"}
	}

	if len(m.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("longer than %d characters", MaxDescriptionLength)}
	}

	return nil
}
