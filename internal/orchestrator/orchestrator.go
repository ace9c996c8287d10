// Package orchestrator coordinates the request pipeline:
// rate limit → compose → security validation → deep-link encoding → record.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"solana-token-forge/internal/composer"
	"solana-token-forge/internal/confirm"
	"solana-token-forge/internal/deeplink"
	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/observability"
	"solana-token-forge/internal/pinning"
	"solana-token-forge/internal/pubkey"
	"solana-token-forge/internal/ratelimit"
	"solana-token-forge/internal/security"
	"solana-token-forge/internal/storage"
	"solana-token-forge/internal/transaction"
)

// ErrSecurityRejected is the only security failure callers see. The
// specific reason is logged and counted, never surfaced.
var ErrSecurityRejected = errors.New("transaction rejected by security policy")

// Orchestrator runs every user-facing flow end to end. One instance is
// shared by all requests; per-request state lives on the stack.
type Orchestrator struct {
	limiter   *ratelimit.Limiter
	composer  *composer.Composer
	validator *security.Validator
	encoder   *deeplink.Encoder
	poller    *confirm.Poller
	pinner    *pinning.Client

	records storage.TokenRecordStore
	audits  storage.AuditEventStore

	logger *log.Logger
	now    func() time.Time

	// tasks holds in-flight confirmation handles by signature.
	tasksMu sync.Mutex
	tasks   map[string]*confirm.Task
}

// Options for creating an Orchestrator.
type Options struct {
	// Required components.
	Limiter   *ratelimit.Limiter
	Composer  *composer.Composer
	Validator *security.Validator
	Encoder   *deeplink.Encoder
	Poller    *confirm.Poller

	// Required stores.
	TokenRecordStore storage.TokenRecordStore
	AuditEventStore  storage.AuditEventStore

	// Pinner is optional; without it image URLs pass through unpinned.
	Pinner *pinning.Client

	Logger *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{
		limiter:   opts.Limiter,
		composer:  opts.Composer,
		validator: opts.Validator,
		encoder:   opts.Encoder,
		poller:    opts.Poller,
		pinner:    opts.Pinner,
		records:   opts.TokenRecordStore,
		audits:    opts.AuditEventStore,
		logger:    logger,
		now:       time.Now,
		tasks:     make(map[string]*confirm.Task),
	}
}

// ExplorerLinks point at public block explorers for a mint.
type ExplorerLinks struct {
	Solscan  string `json:"solscan"`
	SolanaFM string `json:"solanafm"`
}

func explorerLinks(mint string) ExplorerLinks {
	return ExplorerLinks{
		Solscan:  "https://solscan.io/token/" + mint,
		SolanaFM: "https://solana.fm/address/" + mint,
	}
}

// CreateTokenRequest is one user-facing creation request.
type CreateTokenRequest struct {
	UserID             string
	Creator            pubkey.Pubkey
	Metadata           domain.TokenMetadata
	DisableSellingDays uint32
}

// CreateTokenResult is the deliverable of a creation flow.
type CreateTokenResult struct {
	Mint              string        `json:"mint"`
	AssociatedAccount string        `json:"associated_account"`
	DeepLink          string        `json:"deep_link"`
	ImageURL          string        `json:"image_url,omitempty"`
	Explorer          ExplorerLinks `json:"explorer"`
}

// CreateToken runs the full creation pipeline and returns a signable deep
// link. Nothing is broadcast; the user's wallet does that.
func (o *Orchestrator) CreateToken(ctx context.Context, req CreateTokenRequest) (*CreateTokenResult, error) {
	start := o.now()
	if err := o.admit(ctx, req.UserID); err != nil {
		return nil, err
	}

	meta := req.Metadata
	if meta.ImageURL != "" && o.pinner != nil {
		pinned, err := o.pinner.PinImageURL(ctx, meta.ImageURL)
		if err != nil {
			// Keep the original reference; pinning is an enhancement.
			o.logger.Printf("image pin failed for user %s: %v", req.UserID, err)
		} else {
			meta.ImageURL = pinned
		}
	}

	built, err := o.composer.BuildCreateToken(ctx, composer.CreateParams{
		Creator:            req.Creator,
		Metadata:           meta,
		DisableSellingDays: req.DisableSellingDays,
	})
	if err != nil {
		observability.RecordBuildError(errorKind(err))
		return nil, err
	}

	uri, rawLen, err := o.gateAndEncode(ctx, req.UserID, built.Tx)
	if err != nil {
		return nil, err
	}

	mint := built.Mint.String()
	record := &domain.TokenRecord{
		Mint:          mint,
		UserID:        req.UserID,
		Name:          meta.Name,
		Symbol:        meta.Symbol,
		Decimals:      meta.Decimals,
		InitialSupply: meta.InitialSupply,
		DeepLink:      uri,
		CreatedAt:     o.now().UnixMilli(),
	}
	if meta.ImageURL != "" {
		record.ImageURL = &meta.ImageURL
	}
	if meta.Description != "" {
		record.Description = &meta.Description
	}
	if err := o.records.Insert(ctx, record); err != nil {
		// The link is already valid; losing the listing entry is logged,
		// not fatal.
		o.logger.Printf("store token record %s: %v", mint, err)
	}

	o.audit(ctx, domain.AuditDeepLinkIssued, req.UserID, mint, "", "create")
	observability.RecordDeepLinkIssued("create", rawLen, len(uri))
	observability.RecordBuildDuration("create", o.now().Sub(start).Seconds())

	return &CreateTokenResult{
		Mint:              mint,
		AssociatedAccount: built.AssociatedAccount.String(),
		DeepLink:          uri,
		ImageURL:          meta.ImageURL,
		Explorer:          explorerLinks(mint),
	}, nil
}

// CloneTokenRequest copies decimals and supply from an existing mint.
type CloneTokenRequest struct {
	UserID     string
	Creator    pubkey.Pubkey
	SourceMint pubkey.Pubkey
	Name       string
	Symbol     string
}

// CloneToken builds a creation deep link mirroring an existing mint.
func (o *Orchestrator) CloneToken(ctx context.Context, req CloneTokenRequest) (*CreateTokenResult, error) {
	start := o.now()
	if err := o.admit(ctx, req.UserID); err != nil {
		return nil, err
	}

	built, err := o.composer.BuildCloneToken(ctx, composer.CloneParams{
		Creator:    req.Creator,
		SourceMint: req.SourceMint,
		Name:       req.Name,
		Symbol:     req.Symbol,
	})
	if err != nil {
		observability.RecordBuildError(errorKind(err))
		return nil, err
	}

	uri, rawLen, err := o.gateAndEncode(ctx, req.UserID, built.Tx)
	if err != nil {
		return nil, err
	}

	mint := built.Mint.String()
	o.audit(ctx, domain.AuditDeepLinkIssued, req.UserID, mint, "", "clone")
	observability.RecordDeepLinkIssued("clone", rawLen, len(uri))
	observability.RecordBuildDuration("clone", o.now().Sub(start).Seconds())

	return &CreateTokenResult{
		Mint:              mint,
		AssociatedAccount: built.AssociatedAccount.String(),
		DeepLink:          uri,
		Explorer:          explorerLinks(mint),
	}, nil
}

// RevokeAuthorities builds a deep link that nulls the caller's mint and
// freeze authorities.
func (o *Orchestrator) RevokeAuthorities(ctx context.Context, userID string, authority, mint pubkey.Pubkey) (string, error) {
	if err := o.admit(ctx, userID); err != nil {
		return "", err
	}

	tx, err := o.composer.BuildRevokeAuthorities(ctx, authority, mint)
	if err != nil {
		observability.RecordBuildError(errorKind(err))
		return "", err
	}

	uri, rawLen, err := o.gateAndEncode(ctx, userID, tx)
	if err != nil {
		return "", err
	}

	o.audit(ctx, domain.AuditDeepLinkIssued, userID, mint.String(), "", "revoke")
	observability.RecordDeepLinkIssued("revoke", rawLen, len(uri))
	return uri, nil
}

// DisableSelling builds a deep link that locks transfers for 1-7 days.
func (o *Orchestrator) DisableSelling(ctx context.Context, userID string, authority, mint pubkey.Pubkey, days uint32) (string, error) {
	if err := o.admit(ctx, userID); err != nil {
		return "", err
	}

	tx, err := o.composer.BuildDisableSelling(ctx, authority, mint, days)
	if err != nil {
		observability.RecordBuildError(errorKind(err))
		return "", err
	}

	uri, rawLen, err := o.gateAndEncode(ctx, userID, tx)
	if err != nil {
		return "", err
	}

	o.audit(ctx, domain.AuditDeepLinkIssued, userID, mint.String(), "", "disable-selling")
	observability.RecordDeepLinkIssued("disable-selling", rawLen, len(uri))
	return uri, nil
}

// TrackConfirmation begins tracking a broadcast signature and returns the
// task handle. Tracking one signature twice returns the existing handle.
func (o *Orchestrator) TrackConfirmation(ctx context.Context, userID, signature string) *confirm.Task {
	o.tasksMu.Lock()
	if existing, ok := o.tasks[signature]; ok {
		o.tasksMu.Unlock()
		return existing
	}
	task := o.poller.Start(ctx, signature)
	o.tasks[signature] = task
	o.tasksMu.Unlock()

	go func() {
		<-task.Done()
		res, _ := task.Result()
		o.audit(context.Background(), domain.AuditConfirmation, userID, "", signature, string(res.Status))
		observability.RecordConfirmation(string(res.Status), res.Attempts)
		o.logger.Printf("confirmation %s settled: %s (attempts=%d)", signature, res.Status, res.Attempts)
	}()

	return task
}

// ConfirmationStatus returns the current state of a tracked signature.
func (o *Orchestrator) ConfirmationStatus(signature string) (confirm.Result, bool) {
	o.tasksMu.Lock()
	task, ok := o.tasks[signature]
	o.tasksMu.Unlock()
	if !ok {
		return confirm.Result{}, false
	}
	res, _ := task.Result()
	return res, true
}

// CancelConfirmation stops tracking a signature. The transaction itself is
// unaffected.
func (o *Orchestrator) CancelConfirmation(signature string) bool {
	o.tasksMu.Lock()
	task, ok := o.tasks[signature]
	o.tasksMu.Unlock()
	if ok {
		task.Cancel()
	}
	return ok
}

// ListTokens returns the user's issued tokens, newest first.
func (o *Orchestrator) ListTokens(ctx context.Context, userID string) ([]*domain.TokenRecord, error) {
	return o.records.ListByUser(ctx, userID)
}

// admit applies the rate limit. Rejections are informational.
func (o *Orchestrator) admit(ctx context.Context, userID string) error {
	ok, retryAfter := o.limiter.Check(userID)
	if ok {
		return nil
	}
	o.audit(ctx, domain.AuditRateLimited, userID, "", "", fmt.Sprintf("%d", retryAfter))
	observability.RecordRateLimited()
	return &ratelimit.LimitExceededError{RetryAfter: retryAfter}
}

// gateAndEncode runs the security validator and the deep-link encoder.
// Returns the URI and the serialized transaction length.
func (o *Orchestrator) gateAndEncode(ctx context.Context, userID string, tx *transaction.Transaction) (string, int, error) {
	passed, reason := o.validator.Validate(tx)
	if !passed {
		o.audit(ctx, domain.AuditSecurityRejected, userID, "", "", string(reason))
		observability.RecordSecurityRejection(string(reason))
		o.logger.Printf("security rejection for user %s: %s", userID, reason)
		return "", 0, ErrSecurityRejected
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", 0, err
	}
	uri, err := o.encoder.Encode(tx)
	if err != nil {
		observability.RecordBuildError(errorKind(err))
		return "", 0, err
	}
	return uri, len(raw), nil
}

// audit writes one event, best effort.
func (o *Orchestrator) audit(ctx context.Context, kind domain.AuditEventKind, userID, mint, signature, detail string) {
	if o.audits == nil {
		return
	}
	err := o.audits.Insert(ctx, &domain.AuditEvent{
		Kind:      kind,
		UserID:    userID,
		Mint:      mint,
		Signature: signature,
		Detail:    detail,
		CreatedAt: o.now().UnixMilli(),
	})
	if err != nil {
		o.logger.Printf("audit %s: %v", kind, err)
	}
}

// errorKind maps an error to a stable metric label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, composer.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, composer.ErrMintNotFound):
		return "mint_not_found"
	case errors.Is(err, deeplink.ErrURITooLong):
		return "encoding_overflow"
	default:
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return "validation"
		}
		return "internal"
	}
}
