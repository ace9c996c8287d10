package domain

// TokenRecord captures one issued deep link for the "my tokens" listing.
// Corresponds to token_records table in PostgreSQL.
type TokenRecord struct {
	Mint          string // PK, token mint address
	UserID        string // requesting user/wallet identifier
	Name          string
	Symbol        string
	Decimals      int
	InitialSupply uint64
	DeepLink      string
	ImageURL      *string // nullable
	Description   *string // nullable
	CreatedAt     int64   // record creation timestamp (ms)
}
