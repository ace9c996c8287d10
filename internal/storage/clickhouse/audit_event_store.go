package clickhouse

import (
	"context"
	"fmt"

	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/storage"
)

// AuditEventStore implements storage.AuditEventStore using ClickHouse.
// MergeTree enforces no uniqueness; the log is append-only by design of
// the schema, not the engine.
type AuditEventStore struct {
	conn *Conn
}

// NewAuditEventStore creates a new AuditEventStore.
func NewAuditEventStore(conn *Conn) *AuditEventStore {
	return &AuditEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AuditEventStore = (*AuditEventStore)(nil)

// Insert appends one event.
func (s *AuditEventStore) Insert(ctx context.Context, e *domain.AuditEvent) error {
	if e == nil || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO audit_events (
			kind, user_id, mint, signature, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		string(e.Kind),
		e.UserID,
		e.Mint,
		e.Signature,
		e.Detail,
		uint64(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser retrieves up to limit events for a user, newest first.
func (s *AuditEventStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AuditEvent, error) {
	query := `
		SELECT kind, user_id, mint, signature, detail, created_at
		FROM audit_events
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditEvent
	for rows.Next() {
		var (
			e         domain.AuditEvent
			kind      string
			createdAt uint64
		)
		if err := rows.Scan(&kind, &e.UserID, &e.Mint, &e.Signature, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Kind = domain.AuditEventKind(kind)
		e.CreatedAt = int64(createdAt)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

// CountByKind returns the total number of events of one kind.
func (s *AuditEventStore) CountByKind(ctx context.Context, kind domain.AuditEventKind) (uint64, error) {
	query := `SELECT count() FROM audit_events WHERE kind = ?`

	row := s.conn.QueryRow(ctx, query, string(kind))
	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}
