// Package memory provides in-memory store implementations for development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/storage"
)

// TokenRecordStore is an in-memory implementation of storage.TokenRecordStore.
type TokenRecordStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.TokenRecord
	byUser map[string][]*domain.TokenRecord
}

// NewTokenRecordStore creates a new in-memory token record store.
func NewTokenRecordStore() *TokenRecordStore {
	return &TokenRecordStore{
		byMint: make(map[string]*domain.TokenRecord),
		byUser: make(map[string][]*domain.TokenRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if mint already exists.
func (s *TokenRecordStore) Insert(_ context.Context, r *domain.TokenRecord) error {
	if r == nil || r.Mint == "" || r.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMint[r.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *r
	s.byMint[r.Mint] = &recCopy
	s.byUser[r.UserID] = append(s.byUser[r.UserID], &recCopy)
	return nil
}

// GetByMint retrieves a record by mint address. Returns ErrNotFound if not exists.
func (s *TokenRecordStore) GetByMint(_ context.Context, mint string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *r
	return &recCopy, nil
}

// ListByUser retrieves all records for a user, newest first.
func (s *TokenRecordStore) ListByUser(_ context.Context, userID string) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byUser[userID]
	out := make([]*domain.TokenRecord, 0, len(records))
	for _, r := range records {
		recCopy := *r
		out = append(out, &recCopy)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)
