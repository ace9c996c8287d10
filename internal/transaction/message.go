package transaction

import (
	"solana-token-forge/internal/pubkey"
)

// message is the compiled legacy message: deduplicated account table,
// header counts, and index-compiled instructions.
type message struct {
	numRequiredSignatures       uint8
	numReadonlySignedAccounts   uint8
	numReadonlyUnsignedAccounts uint8
	accountKeys                 []pubkey.Pubkey
	recentBlockhash             Blockhash
	instructions                []compiledInstruction
}

// compiledInstruction references accounts by index into the message's
// account table.
type compiledInstruction struct {
	programIDIndex uint8
	accountIndexes []uint8
	data           []byte
}

// accountEntry accumulates merged signer/writable flags for one key.
type accountEntry struct {
	key      pubkey.Pubkey
	signer   bool
	writable bool
}

// compile flattens the instruction account metas into the canonical message
// account table: fee payer first, then writable signers, readonly signers,
// writable non-signers, readonly non-signers. Flags are OR-merged across
// duplicate references. Instruction order is never altered.
func (t *Transaction) compile() message {
	entries := []accountEntry{{key: t.FeePayer, signer: true, writable: true}}
	index := map[pubkey.Pubkey]int{t.FeePayer: 0}

	upsert := func(key pubkey.Pubkey, signer, writable bool) {
		if i, ok := index[key]; ok {
			entries[i].signer = entries[i].signer || signer
			entries[i].writable = entries[i].writable || writable
			return
		}
		index[key] = len(entries)
		entries = append(entries, accountEntry{key: key, signer: signer, writable: writable})
	}

	for _, ins := range t.Instructions {
		for _, m := range ins.Accounts {
			upsert(m.Pubkey, m.IsSigner, m.IsWritable)
		}
		upsert(ins.ProgramID, false, false)
	}

	// Stable partition into the four header classes. The fee payer stays at
	// index zero because it is a writable signer and sorting is stable.
	ordered := make([]accountEntry, 0, len(entries))
	for _, pick := range []func(accountEntry) bool{
		func(e accountEntry) bool { return e.signer && e.writable },
		func(e accountEntry) bool { return e.signer && !e.writable },
		func(e accountEntry) bool { return !e.signer && e.writable },
		func(e accountEntry) bool { return !e.signer && !e.writable },
	} {
		for _, e := range entries {
			if pick(e) {
				ordered = append(ordered, e)
			}
		}
	}

	msg := message{recentBlockhash: t.RecentBlockhash}
	finalIndex := make(map[pubkey.Pubkey]uint8, len(ordered))
	for i, e := range ordered {
		msg.accountKeys = append(msg.accountKeys, e.key)
		finalIndex[e.key] = uint8(i)
		if e.signer {
			msg.numRequiredSignatures++
			if !e.writable {
				msg.numReadonlySignedAccounts++
			}
		} else if !e.writable {
			msg.numReadonlyUnsignedAccounts++
		}
	}

	for _, ins := range t.Instructions {
		ci := compiledInstruction{
			programIDIndex: finalIndex[ins.ProgramID],
			data:           ins.Data,
		}
		for _, m := range ins.Accounts {
			ci.accountIndexes = append(ci.accountIndexes, finalIndex[m.Pubkey])
		}
		msg.instructions = append(msg.instructions, ci)
	}

	return msg
}

// serialize emits the legacy message wire format.
func (m message) serialize() []byte {
	out := []byte{
		m.numRequiredSignatures,
		m.numReadonlySignedAccounts,
		m.numReadonlyUnsignedAccounts,
	}

	out = appendCompactU16(out, uint16(len(m.accountKeys)))
	for _, key := range m.accountKeys {
		out = append(out, key[:]...)
	}

	out = append(out, m.recentBlockhash[:]...)

	out = appendCompactU16(out, uint16(len(m.instructions)))
	for _, ci := range m.instructions {
		out = append(out, ci.programIDIndex)
		out = appendCompactU16(out, uint16(len(ci.accountIndexes)))
		out = append(out, ci.accountIndexes...)
		out = appendCompactU16(out, uint16(len(ci.data)))
		out = append(out, ci.data...)
	}

	return out
}

// appendCompactU16 appends a shortvec-encoded length: 7 bits per byte,
// high bit as continuation.
func appendCompactU16(out []byte, v uint16) []byte {
	for {
		if v < 0x80 {
			return append(out, byte(v))
		}
		out = append(out, byte(v&0x7f)|0x80)
		v >>= 7
	}
}
