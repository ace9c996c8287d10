package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/storage"
)

// TokenRecordStore implements storage.TokenRecordStore using PostgreSQL.
type TokenRecordStore struct {
	pool *Pool
}

// NewTokenRecordStore creates a new TokenRecordStore.
func NewTokenRecordStore(pool *Pool) *TokenRecordStore {
	return &TokenRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if mint exists.
func (s *TokenRecordStore) Insert(ctx context.Context, r *domain.TokenRecord) error {
	if r == nil || r.Mint == "" || r.UserID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_records (
			mint, user_id, name, symbol, decimals, initial_supply,
			deep_link, image_url, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// initial_supply is capped at 1e18 upstream, well inside BIGINT range.
	_, err := s.pool.Exec(ctx, query,
		r.Mint,
		r.UserID,
		r.Name,
		r.Symbol,
		r.Decimals,
		int64(r.InitialSupply),
		r.DeepLink,
		r.ImageURL,
		r.Description,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token record: %w", err)
	}
	return nil
}

// GetByMint retrieves a record by mint address. Returns ErrNotFound if not exists.
func (s *TokenRecordStore) GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error) {
	query := `
		SELECT mint, user_id, name, symbol, decimals, initial_supply,
		       deep_link, image_url, description, created_at
		FROM token_records
		WHERE mint = $1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	r, err := scanTokenRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token record by mint: %w", err)
	}
	return r, nil
}

// ListByUser retrieves all records for a user, newest first.
func (s *TokenRecordStore) ListByUser(ctx context.Context, userID string) ([]*domain.TokenRecord, error) {
	query := `
		SELECT mint, user_id, name, symbol, decimals, initial_supply,
		       deep_link, image_url, description, created_at
		FROM token_records
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list token records: %w", err)
	}
	defer rows.Close()

	var out []*domain.TokenRecord
	for rows.Next() {
		r, err := scanTokenRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token records: %w", err)
	}
	return out, nil
}

// scanTokenRecord scans a single row into TokenRecord.
func scanTokenRecord(row pgx.Row) (*domain.TokenRecord, error) {
	var r domain.TokenRecord
	var supply int64

	err := row.Scan(
		&r.Mint,
		&r.UserID,
		&r.Name,
		&r.Symbol,
		&r.Decimals,
		&supply,
		&r.DeepLink,
		&r.ImageURL,
		&r.Description,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.InitialSupply = uint64(supply)
	return &r, nil
}
