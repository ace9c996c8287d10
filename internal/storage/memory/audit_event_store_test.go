package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/storage"
)

func TestAuditEventStoreInsertAndList(t *testing.T) {
	s := NewAuditEventStore()
	ctx := context.Background()

	events := []*domain.AuditEvent{
		{Kind: domain.AuditDeepLinkIssued, UserID: "u1", Mint: "m1", CreatedAt: 1},
		{Kind: domain.AuditRateLimited, UserID: "u1", Detail: "30", CreatedAt: 2},
		{Kind: domain.AuditDeepLinkIssued, UserID: "u2", Mint: "m2", CreatedAt: 3},
	}
	for _, e := range events {
		if err := s.Insert(ctx, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := s.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Kind != domain.AuditRateLimited {
		t.Errorf("first event = %s, want newest first", got[0].Kind)
	}

	limited, _ := s.ListByUser(ctx, "u1", 1)
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
}

func TestAuditEventStoreCountByKind(t *testing.T) {
	s := NewAuditEventStore()
	ctx := context.Background()

	s.Insert(ctx, &domain.AuditEvent{Kind: domain.AuditSecurityRejected, UserID: "u1", Detail: "program_not_allowed"})
	s.Insert(ctx, &domain.AuditEvent{Kind: domain.AuditSecurityRejected, UserID: "u2", Detail: "oversized"})
	s.Insert(ctx, &domain.AuditEvent{Kind: domain.AuditConfirmation, UserID: "u1", Detail: "CONFIRMED"})

	n, err := s.CountByKind(ctx, domain.AuditSecurityRejected)
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestAuditEventStoreInvalidInput(t *testing.T) {
	s := NewAuditEventStore()
	if err := s.Insert(context.Background(), &domain.AuditEvent{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
