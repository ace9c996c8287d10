package memory

import (
	"context"
	"sync"

	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/storage"
)

// AuditEventStore is an in-memory implementation of storage.AuditEventStore.
type AuditEventStore struct {
	mu     sync.RWMutex
	events []*domain.AuditEvent
}

// NewAuditEventStore creates a new in-memory audit event store.
func NewAuditEventStore() *AuditEventStore {
	return &AuditEventStore{}
}

// Insert appends one event.
func (s *AuditEventStore) Insert(_ context.Context, e *domain.AuditEvent) error {
	if e == nil || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evCopy := *e
	s.events = append(s.events, &evCopy)
	return nil
}

// ListByUser retrieves up to limit events for a user, newest first.
func (s *AuditEventStore) ListByUser(_ context.Context, userID string, limit int) ([]*domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AuditEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].UserID != userID {
			continue
		}
		evCopy := *s.events[i]
		out = append(out, &evCopy)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// CountByKind returns the total number of events of one kind.
func (s *AuditEventStore) CountByKind(_ context.Context, kind domain.AuditEventKind) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n, nil
}

var _ storage.AuditEventStore = (*AuditEventStore)(nil)
