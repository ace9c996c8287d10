// Package confirm tracks broadcast transactions until the ledger settles
// them, using exponential-backoff polling with an optional WebSocket
// fast path.
package confirm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"solana-token-forge/internal/solana"
)

// Status is the terminal (or pending) state of a tracked signature.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
	StatusTimedOut  Status = "TIMED_OUT"
)

// Result is the outcome of tracking one signature.
type Result struct {
	Signature string
	Status    Status
	Slot      int64
	// Attempts is the number of ledger queries made.
	Attempts int
	// Err describes the on-chain execution error or the terminal RPC
	// failure. Empty on CONFIRMED.
	Err string
	// Detail is the jsonParsed transaction payload when available.
	Detail json.RawMessage
}

// Config controls the polling schedule. Delay before attempt n is
// min(MinDelay * Exponent^(n-1), MaxDelay).
type Config struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Exponent    float64
	MaxAttempts int
}

// DefaultConfig polls 3 times at 1s, 2s, 4s.
func DefaultConfig() Config {
	return Config{
		MinDelay:    1 * time.Second,
		MaxDelay:    30 * time.Second,
		Exponent:    2,
		MaxAttempts: 3,
	}
}

// delay returns the wait before the given 1-based attempt.
func (c Config) delay(attempt int) time.Duration {
	d := time.Duration(float64(c.MinDelay) * math.Pow(c.Exponent, float64(attempt-1)))
	if d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Watcher is the push-notification surface the poller can use before
// falling back to polling. Satisfied by solana.WSClient.
type Watcher interface {
	SubscribeSignature(ctx context.Context, signature string) (<-chan solana.SignatureResult, error)
}

// Poller resolves transaction signatures to terminal statuses. Safe for
// concurrent use; each tracked signature runs independently.
type Poller struct {
	rpc     solana.RPCClient
	watcher Watcher
	cfg     Config
	logger  *log.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithWatcher enables the WebSocket fast path. Polling remains the
// fallback when the subscription cannot be established or drops.
func WithWatcher(w Watcher) PollerOption {
	return func(p *Poller) {
		p.watcher = w
	}
}

// WithLogger sets the poller's logger.
func WithLogger(l *log.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a poller over the given RPC client.
func NewPoller(rpc solana.RPCClient, cfg Config, opts ...PollerOption) *Poller {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	p := &Poller{
		rpc:    rpc,
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Confirm tracks the signature synchronously until a terminal status or
// context cancellation. A cancelled context yields PENDING.
func (p *Poller) Confirm(ctx context.Context, signature string) Result {
	if p.watcher != nil {
		if res, ok := p.watch(ctx, signature); ok {
			return res
		}
	}
	return p.poll(ctx, signature)
}

// watch waits for a push notification. The second return value is false
// when the caller should fall back to polling.
func (p *Poller) watch(ctx context.Context, signature string) (Result, bool) {
	// Bound the wait by the polling schedule's total budget.
	var budget time.Duration
	for i := 1; i <= p.cfg.MaxAttempts; i++ {
		budget += p.cfg.delay(i)
	}

	subCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ch, err := p.watcher.SubscribeSignature(subCtx, signature)
	if err != nil {
		p.logger.Printf("signature subscribe failed, polling instead: %v", err)
		return Result{}, false
	}

	select {
	case res, ok := <-ch:
		if !ok {
			// Connection dropped before notification.
			return Result{}, false
		}
		out := Result{Signature: signature, Status: StatusConfirmed, Slot: res.Slot}
		if res.Err != nil {
			out.Status = StatusFailed
			out.Err = fmt.Sprintf("%v", res.Err)
		}
		return out, true
	case <-subCtx.Done():
		if ctx.Err() != nil {
			return Result{Signature: signature, Status: StatusPending, Err: ctx.Err().Error()}, true
		}
		return Result{}, false
	}
}

// poll queries the ledger up to MaxAttempts times, sleeping the backoff
// delay before each query.
func (p *Poller) poll(ctx context.Context, signature string) Result {
	res := Result{Signature: signature, Status: StatusPending}

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := sleep(ctx, p.cfg.delay(attempt)); err != nil {
			res.Err = err.Error()
			return res
		}

		status, err := p.rpc.GetTransaction(ctx, signature)
		res.Attempts = attempt

		switch {
		case err != nil && solana.IsTransient(err):
			p.logger.Printf("confirm %s attempt %d/%d: %v", signature, attempt, p.cfg.MaxAttempts, err)
			continue
		case err != nil:
			res.Status = StatusFailed
			res.Err = err.Error()
			return res
		case status == nil:
			// Ledger has not seen the signature yet.
			continue
		case status.Failed():
			res.Status = StatusFailed
			res.Slot = status.Slot
			res.Err = fmt.Sprintf("%v", status.Err)
			res.Detail = status.Detail
			return res
		default:
			res.Status = StatusConfirmed
			res.Slot = status.Slot
			res.Detail = status.Detail
			return res
		}
	}

	res.Status = StatusTimedOut
	res.Err = fmt.Sprintf("not confirmed after %d attempts", p.cfg.MaxAttempts)
	return res
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
