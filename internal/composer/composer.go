// Package composer assembles unsigned token transactions from validated
// metadata and live ledger state. One composer serves every flow; optional
// instructions are selected by configuration flags instead of duplicate
// build paths.
package composer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"

	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/instruction"
	"solana-token-forge/internal/pubkey"
	"solana-token-forge/internal/solana"
	"solana-token-forge/internal/spl"
	"solana-token-forge/internal/transaction"
)

// DefaultFeeFloorLamports is the balance cushion required beyond rent:
// covers the transaction fee plus associated-account rent.
const DefaultFeeFloorLamports = 2_000_000

var (
	// ErrInsufficientFunds is returned before any transaction is built when
	// the creator's balance cannot cover rent plus the fee floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMintNotFound is returned when a clone or authority flow references
	// a mint the ledger does not have.
	ErrMintNotFound = errors.New("mint account not found")

	// ErrNoAuthorities is returned when revoking a mint whose authorities
	// are already gone.
	ErrNoAuthorities = errors.New("mint has no revocable authorities")

	// ErrFeatureDisabled is returned for disable-selling requests when no
	// smart-contract program is configured.
	ErrFeatureDisabled = errors.New("disable-selling is not enabled")
)

// Config controls optional composer behavior.
type Config struct {
	// FeeFloorLamports is the required balance cushion beyond mint rent.
	// Zero selects DefaultFeeFloorLamports.
	FeeFloorLamports uint64

	// SmartContractProgram is the lockup program for disable-selling.
	// Zero leaves the feature off.
	SmartContractProgram pubkey.Pubkey

	// IncludeDisableSelling appends the lockup instruction to the create
	// flow when the request asks for it. Off, create requests with lockup
	// days are rejected.
	IncludeDisableSelling bool

	// Logger receives one line per composed transaction. Nil disables.
	Logger *log.Logger
}

// Composer builds unsigned transactions against live ledger state.
type Composer struct {
	rpc solana.RPCClient
	cfg Config
	log *log.Logger
}

// New creates a composer over the given RPC client.
func New(rpc solana.RPCClient, cfg Config) *Composer {
	if cfg.FeeFloorLamports == 0 {
		cfg.FeeFloorLamports = DefaultFeeFloorLamports
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Composer{rpc: rpc, cfg: cfg, log: logger}
}

// CreateParams describes one token-creation request.
type CreateParams struct {
	// Creator pays fees, receives the initial supply, and holds both mint
	// authorities.
	Creator  pubkey.Pubkey
	Metadata domain.TokenMetadata

	// DisableSellingDays locks transfers for 1-7 days when the feature is
	// enabled. Zero skips the lockup instruction.
	DisableSellingDays uint32
}

// CreateResult is a composed creation transaction plus the derived accounts
// the caller needs to record.
type CreateResult struct {
	Tx *transaction.Transaction
	// Mint is the new token's address. The keypair behind it is generated
	// here and immediately discarded.
	Mint              pubkey.Pubkey
	AssociatedAccount pubkey.Pubkey
	RentLamports      uint64
}

// BuildCreateToken composes the four-instruction creation sequence:
// create mint account, initialize mint, create associated account, mint
// initial supply. Order is fixed; the ledger executes sequentially.
func (c *Composer) BuildCreateToken(ctx context.Context, p CreateParams) (*CreateResult, error) {
	if err := p.Metadata.Validate(); err != nil {
		return nil, err
	}
	if p.Creator.IsZero() {
		return nil, &domain.ValidationError{Field: "creator", Reason: "required"}
	}
	if p.DisableSellingDays > 0 && !c.cfg.IncludeDisableSelling {
		return nil, ErrFeatureDisabled
	}

	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, instruction.MintAccountLen)
	if err != nil {
		return nil, fmt.Errorf("query rent exemption: %w", err)
	}
	if err := c.checkBalance(ctx, p.Creator, rent); err != nil {
		return nil, err
	}

	mint, err := ephemeralKey()
	if err != nil {
		return nil, fmt.Errorf("generate mint address: %w", err)
	}

	createMint, err := instruction.CreateAccount(p.Creator, mint, rent, instruction.MintAccountLen, pubkey.TokenProgram)
	if err != nil {
		return nil, err
	}
	initMint, err := instruction.InitializeMint(mint, uint8(p.Metadata.Decimals), p.Creator, &p.Creator)
	if err != nil {
		return nil, err
	}
	createATA, ata, err := instruction.CreateAssociatedTokenAccount(p.Creator, p.Creator, mint)
	if err != nil {
		return nil, err
	}
	mintSupply, err := instruction.MintTo(mint, ata, p.Creator, p.Metadata.InitialSupply)
	if err != nil {
		return nil, err
	}

	instrs := []instruction.Instruction{createMint, initMint, createATA, mintSupply}
	if p.DisableSellingDays > 0 {
		lockup, err := instruction.DisableSelling(c.cfg.SmartContractProgram, mint, p.Creator, p.DisableSellingDays)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, lockup)
	}

	tx, err := c.anchor(ctx, p.Creator, instrs)
	if err != nil {
		return nil, err
	}

	c.log.Printf("composed create token %s mint=%s supply=%d decimals=%d",
		p.Metadata.Symbol, mint, p.Metadata.InitialSupply, p.Metadata.Decimals)
	return &CreateResult{Tx: tx, Mint: mint, AssociatedAccount: ata, RentLamports: rent}, nil
}

// CloneParams describes a creation request that copies decimals and supply
// from an existing mint.
type CloneParams struct {
	Creator    pubkey.Pubkey
	SourceMint pubkey.Pubkey
	Name       string
	Symbol     string
}

// BuildCloneToken reads the source mint's on-chain state and composes a
// creation transaction with the same decimals and supply under a new name.
func (c *Composer) BuildCloneToken(ctx context.Context, p CloneParams) (*CreateResult, error) {
	if p.SourceMint.IsZero() {
		return nil, &domain.ValidationError{Field: "source_mint", Reason: "required"}
	}

	src, err := c.fetchMint(ctx, p.SourceMint)
	if err != nil {
		return nil, err
	}

	supply := src.Supply
	if supply == 0 || supply > domain.MaxInitialSupply {
		// Dead or outsized source supply; clone a single whole token instead.
		supply = pow10(src.Decimals)
	}

	return c.BuildCreateToken(ctx, CreateParams{
		Creator: p.Creator,
		Metadata: domain.TokenMetadata{
			Name:          p.Name,
			Symbol:        p.Symbol,
			Decimals:      int(src.Decimals),
			InitialSupply: supply,
		},
	})
}

// BuildRevokeAuthorities composes set-authority instructions that null out
// the mint and freeze authorities still present on the mint. The caller
// must currently hold them.
func (c *Composer) BuildRevokeAuthorities(ctx context.Context, authority, mint pubkey.Pubkey) (*transaction.Transaction, error) {
	if authority.IsZero() || mint.IsZero() {
		return nil, &domain.ValidationError{Field: "mint", Reason: "required"}
	}

	state, err := c.fetchMint(ctx, mint)
	if err != nil {
		return nil, err
	}

	var instrs []instruction.Instruction
	if state.MintAuthority != nil {
		ins, err := instruction.SetAuthority(mint, authority, instruction.AuthorityMintTokens, nil)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, ins)
	}
	if state.FreezeAuthority != nil {
		ins, err := instruction.SetAuthority(mint, authority, instruction.AuthorityFreezeAccount, nil)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, ins)
	}
	if len(instrs) == 0 {
		return nil, ErrNoAuthorities
	}

	tx, err := c.anchor(ctx, authority, instrs)
	if err != nil {
		return nil, err
	}
	c.log.Printf("composed revoke authorities mint=%s instructions=%d", mint, len(instrs))
	return tx, nil
}

// BuildDisableSelling composes a standalone lockup transaction for an
// existing mint.
func (c *Composer) BuildDisableSelling(ctx context.Context, authority, mint pubkey.Pubkey, days uint32) (*transaction.Transaction, error) {
	if c.cfg.SmartContractProgram.IsZero() {
		return nil, ErrFeatureDisabled
	}
	if _, err := c.fetchMint(ctx, mint); err != nil {
		return nil, err
	}

	lockup, err := instruction.DisableSelling(c.cfg.SmartContractProgram, mint, authority, days)
	if err != nil {
		return nil, err
	}

	tx, err := c.anchor(ctx, authority, []instruction.Instruction{lockup})
	if err != nil {
		return nil, err
	}
	c.log.Printf("composed disable selling mint=%s days=%d", mint, days)
	return tx, nil
}

// checkBalance enforces the funds gate before any instruction is built.
func (c *Composer) checkBalance(ctx context.Context, creator pubkey.Pubkey, rent uint64) error {
	balance, err := c.rpc.GetBalance(ctx, creator.String())
	if err != nil {
		return fmt.Errorf("query balance: %w", err)
	}
	required := rent + c.cfg.FeeFloorLamports
	if balance < required {
		return fmt.Errorf("%w: balance %d lamports, need %d", ErrInsufficientFunds, balance, required)
	}
	return nil
}

// fetchMint loads and decodes an existing mint account.
func (c *Composer) fetchMint(ctx context.Context, mint pubkey.Pubkey) (*spl.Mint, error) {
	info, err := c.rpc.GetAccountInfo(ctx, mint.String())
	if err != nil {
		return nil, fmt.Errorf("query mint account: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	if info.Owner != pubkey.TokenProgram.String() {
		return nil, fmt.Errorf("%w: %s is owned by %s", spl.ErrNotAMint, mint, info.Owner)
	}
	return spl.ParseMintBase64(info.Data)
}

// anchor fetches a recent blockhash and assembles the final transaction.
func (c *Composer) anchor(ctx context.Context, feePayer pubkey.Pubkey, instrs []instruction.Instruction) (*transaction.Transaction, error) {
	hash, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("query blockhash: %w", err)
	}
	bh, err := transaction.BlockhashFromBase58(hash)
	if err != nil {
		return nil, err
	}
	return transaction.New(feePayer, bh, instrs)
}

// ephemeralKey generates a fresh account address. The private half is
// dropped on the floor; signing happens entirely on the wallet side and
// this service never holds key material.
func ephemeralKey() (pubkey.Pubkey, error) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return pubkey.Pubkey{}, err
	}
	return pubkey.FromBytes(pub)
}

func pow10(n uint8) uint64 {
	out := uint64(1)
	for i := uint8(0); i < n; i++ {
		out *= 10
	}
	return out
}
