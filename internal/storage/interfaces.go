package storage

import (
	"context"

	"solana-token-forge/internal/domain"
)

// TokenRecordStore provides access to token_records storage.
type TokenRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if mint exists.
	Insert(ctx context.Context, r *domain.TokenRecord) error

	// GetByMint retrieves a record by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenRecord, error)

	// ListByUser retrieves all records for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.TokenRecord, error)
}

// AuditEventStore provides access to audit_events storage.
type AuditEventStore interface {
	// Insert appends one event. Events are never updated or deleted.
	Insert(ctx context.Context, e *domain.AuditEvent) error

	// ListByUser retrieves up to limit events for a user, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AuditEvent, error)

	// CountByKind returns the total number of events of one kind.
	CountByKind(ctx context.Context, kind domain.AuditEventKind) (uint64, error)
}
