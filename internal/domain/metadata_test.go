package domain

import (
	"errors"
	"strings"
	"testing"
)

func validMetadata() TokenMetadata {
	return TokenMetadata{
		Name:          "Forge Coin",
		Symbol:        "FORGE",
		Decimals:      9,
		InitialSupply: 1_000_000,
	}
}

func TestValidateAccepts(t *testing.T) {
	m := validMetadata()
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// Boundary values are legal.
	m = TokenMetadata{
		Name:          strings.Repeat("a", MaxNameLength),
		Symbol:        strings.Repeat("B", MaxSymbolLength),
		Decimals:      MaxDecimals,
		InitialSupply: MaxInitialSupply,
		Description:   strings.Repeat("d", MaxDescriptionLength),
	}
	if err := m.Validate(); err != nil {
		t.Errorf("boundary metadata rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TokenMetadata)
		field  string
	}{
		{"empty name", func(m *TokenMetadata) { m.Name = "" }, "name"},
		{"long name", func(m *TokenMetadata) { m.Name = strings.Repeat("a", MaxNameLength+1) }, "name"},
		{"name with punctuation", func(m *TokenMetadata) { m.Name = "Forge!" }, "name"},
		{"empty symbol", func(m *TokenMetadata) { m.Symbol = "" }, "symbol"},
		{"long symbol", func(m *TokenMetadata) { m.Symbol = strings.Repeat("F", MaxSymbolLength+1) }, "symbol"},
		{"symbol with space", func(m *TokenMetadata) { m.Symbol = "FO RGE" }, "symbol"},
		{"negative decimals", func(m *TokenMetadata) { m.Decimals = -1 }, "decimals"},
		{"decimals too high", func(m *TokenMetadata) { m.Decimals = MaxDecimals + 1 }, "decimals"},
		{"zero supply", func(m *TokenMetadata) { m.InitialSupply = 0 }, "initial_supply"},
		{"supply overflow", func(m *TokenMetadata) { m.InitialSupply = MaxInitialSupply + 1 }, "initial_supply"},
		{"long description", func(m *TokenMetadata) { m.Description = strings.Repeat("d", MaxDescriptionLength+1) }, "description"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := validMetadata()
			c.mutate(&m)

			err := m.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != c.field {
				t.Errorf("field = %q, want %q", verr.Field, c.field)
			}
		})
	}
}
