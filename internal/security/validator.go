// Package security gates every composed transaction before it can reach a
// user. Checks are structural and policy-based only; no signatures exist at
// this stage.
package security

import (
	"log"

	"solana-token-forge/internal/pubkey"
	"solana-token-forge/internal/transaction"
)

// Reason is a machine-readable rejection code. Reasons are logged and
// counted but never surfaced verbatim to end users.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonEmptyTransaction Reason = "empty_transaction"
	ReasonProgramDenied    Reason = "program_not_allowed"
	ReasonReservedAccount  Reason = "reserved_account_access"
	ReasonOversized        Reason = "oversized"
)

// Config configures the validator.
type Config struct {
	// AllowedPrograms is the closed set of programs a transaction may
	// invoke. Defaults to system + token + associated-token programs when
	// empty; callers append their smart-contract program.
	AllowedPrograms []pubkey.Pubkey

	// Logger receives one line per rejection. Nil disables logging.
	Logger *log.Logger
}

// DefaultAllowedPrograms returns the baseline allow-list.
func DefaultAllowedPrograms() []pubkey.Pubkey {
	return []pubkey.Pubkey{
		pubkey.SystemProgram,
		pubkey.TokenProgram,
		pubkey.AssociatedTokenProgram,
	}
}

// Validator inspects composed transactions for policy violations.
type Validator struct {
	allowed  map[pubkey.Pubkey]struct{}
	reserved map[pubkey.Pubkey]struct{}
	logger   *log.Logger
}

// NewValidator creates a validator from config.
func NewValidator(cfg Config) *Validator {
	programs := cfg.AllowedPrograms
	if len(programs) == 0 {
		programs = DefaultAllowedPrograms()
	}

	allowed := make(map[pubkey.Pubkey]struct{}, len(programs))
	for _, p := range programs {
		allowed[p] = struct{}{}
	}

	// Accounts no instruction outside the System Program may mark writable
	// or signer. Read-only references are legitimate (rent sysvar in
	// initialize-mint, system program in associated-account creation).
	reserved := map[pubkey.Pubkey]struct{}{
		pubkey.SystemProgram: {},
		pubkey.SysvarRent:    {},
		pubkey.SysvarClock:   {},
	}

	return &Validator{allowed: allowed, reserved: reserved, logger: cfg.Logger}
}

// Validate runs every check against the transaction. Returns false with the
// first violated reason; callers must not hand a rejected transaction to the
// deep-link encoder.
func (v *Validator) Validate(tx *transaction.Transaction) (bool, Reason) {
	if tx == nil || len(tx.Instructions) == 0 {
		return v.reject(ReasonEmptyTransaction)
	}

	for _, ins := range tx.Instructions {
		if _, ok := v.allowed[ins.ProgramID]; !ok {
			return v.reject(ReasonProgramDenied)
		}
		if ins.ProgramID == pubkey.SystemProgram {
			continue
		}
		for _, m := range ins.Accounts {
			if _, ok := v.reserved[m.Pubkey]; !ok {
				continue
			}
			if m.IsSigner || m.IsWritable {
				return v.reject(ReasonReservedAccount)
			}
		}
	}

	if _, err := tx.Serialize(); err != nil {
		return v.reject(ReasonOversized)
	}

	return true, ReasonNone
}

func (v *Validator) reject(reason Reason) (bool, Reason) {
	if v.logger != nil {
		v.logger.Printf("transaction rejected: %s", reason)
	}
	return false, reason
}
