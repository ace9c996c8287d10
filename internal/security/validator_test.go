package security

import (
	"testing"

	"solana-token-forge/internal/instruction"
	"solana-token-forge/internal/pubkey"
	"solana-token-forge/internal/transaction"
)

var (
	testPayer = pubkey.MustFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	testMint  = pubkey.MustFromBase58("So11111111111111111111111111111111111111112")
)

func buildTx(t *testing.T, instrs ...instruction.Instruction) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.New(testPayer, transaction.Blockhash{1}, instrs)
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestValidateAllowsTokenCreationFlow(t *testing.T) {
	create, err := instruction.CreateAccount(testPayer, testMint, 1_461_600, 82, pubkey.TokenProgram)
	if err != nil {
		t.Fatal(err)
	}
	initMint, err := instruction.InitializeMint(testMint, 9, testPayer, nil)
	if err != nil {
		t.Fatal(err)
	}
	createATA, _, err := instruction.CreateAssociatedTokenAccount(testPayer, testPayer, testMint)
	if err != nil {
		t.Fatal(err)
	}

	v := NewValidator(Config{})
	ok, reason := v.Validate(buildTx(t, create, initMint, createATA))
	if !ok {
		t.Errorf("valid flow rejected: %s", reason)
	}
}

func TestValidateRejectsNilAndEmpty(t *testing.T) {
	v := NewValidator(Config{})

	if ok, reason := v.Validate(nil); ok || reason != ReasonEmptyTransaction {
		t.Errorf("nil tx: ok=%v reason=%s", ok, reason)
	}
	if ok, reason := v.Validate(&transaction.Transaction{}); ok || reason != ReasonEmptyTransaction {
		t.Errorf("empty tx: ok=%v reason=%s", ok, reason)
	}
}

func TestValidateRejectsUnknownProgram(t *testing.T) {
	rogue := instruction.Instruction{
		ProgramID: pubkey.MustFromBase58("BPFLoaderUpgradeab1e11111111111111111111111"),
		Accounts:  []instruction.AccountMeta{{Pubkey: testMint, IsWritable: true}},
		Data:      []byte{0},
	}

	v := NewValidator(Config{})
	ok, reason := v.Validate(buildTx(t, rogue))
	if ok || reason != ReasonProgramDenied {
		t.Errorf("ok=%v reason=%s, want program_not_allowed", ok, reason)
	}
}

func TestValidateAllowsConfiguredProgram(t *testing.T) {
	contract := pubkey.MustFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	lockup, err := instruction.DisableSelling(contract, testMint, testPayer, 3)
	if err != nil {
		t.Fatal(err)
	}

	v := NewValidator(Config{
		AllowedPrograms: append(DefaultAllowedPrograms(), contract),
	})
	ok, reason := v.Validate(buildTx(t, lockup))
	if !ok {
		t.Errorf("allow-listed program rejected: %s", reason)
	}
}

func TestValidateRejectsWritableReservedAccount(t *testing.T) {
	// A token-program instruction marking a sysvar writable is never
	// legitimate even though the program itself is allowed.
	tampered := instruction.Instruction{
		ProgramID: pubkey.TokenProgram,
		Accounts: []instruction.AccountMeta{
			{Pubkey: testMint, IsWritable: true},
			{Pubkey: pubkey.SysvarRent, IsWritable: true},
		},
		Data: []byte{0},
	}

	v := NewValidator(Config{})
	ok, reason := v.Validate(buildTx(t, tampered))
	if ok || reason != ReasonReservedAccount {
		t.Errorf("ok=%v reason=%s, want reserved_account_access", ok, reason)
	}
}

func TestValidateAllowsSystemProgramWrites(t *testing.T) {
	// System-program instructions legitimately move lamports between plain
	// accounts; the reserved-account check does not apply to them.
	transfer, err := instruction.Transfer(testPayer, testMint, 1_000)
	if err != nil {
		t.Fatal(err)
	}

	v := NewValidator(Config{})
	if ok, reason := v.Validate(buildTx(t, transfer)); !ok {
		t.Errorf("system transfer rejected: %s", reason)
	}
}

func TestValidateRejectsOversized(t *testing.T) {
	big := instruction.Instruction{
		ProgramID: pubkey.TokenProgram,
		Accounts:  []instruction.AccountMeta{{Pubkey: testMint, IsWritable: true}},
		Data:      make([]byte, 1300),
	}

	v := NewValidator(Config{})
	ok, reason := v.Validate(buildTx(t, big))
	if ok || reason != ReasonOversized {
		t.Errorf("ok=%v reason=%s, want oversized", ok, reason)
	}
}
