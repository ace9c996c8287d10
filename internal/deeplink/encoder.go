// Package deeplink serializes validated transactions into wallet deep-link
// URIs. Pure data transformation: nothing here touches keys or the network.
package deeplink

import (
	"encoding/base64"
	"errors"
	"fmt"

	"solana-token-forge/internal/transaction"
)

// MaxURILength is the wallet's ceiling for the full deep-link URI. Base64
// expansion (~4/3x) makes this the binding constraint in practice, tighter
// than the raw ledger size limit for borderline transactions.
const MaxURILength = 2000

// DefaultScheme targets the Phantom wallet.
const DefaultScheme = "phantom"

var (
	// ErrURITooLong is returned when the encoded link exceeds MaxURILength.
	// Retrying cannot help; the transaction must shrink.
	ErrURITooLong = errors.New("deep link exceeds maximum URI length")

	// ErrEmptyTransaction is returned when serialization yields no bytes.
	ErrEmptyTransaction = errors.New("deep link for empty transaction")
)

// Encoder renders transactions as deep-link URIs for one wallet scheme.
type Encoder struct {
	scheme string
}

// NewEncoder creates an encoder for the given wallet scheme. An empty
// scheme selects DefaultScheme.
func NewEncoder(scheme string) *Encoder {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Encoder{scheme: scheme}
}

// Encode serializes the transaction, base64-encodes it, and wraps it in the
// wallet's universal-link template. The transaction is not retained.
func (e *Encoder) Encode(tx *transaction.Transaction) (string, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	if len(raw) == 0 {
		return "", ErrEmptyTransaction
	}

	payload := base64.StdEncoding.EncodeToString(raw)
	uri := fmt.Sprintf("%s://ul/v1/?tx=%s&type=transaction", e.scheme, payload)
	if len(uri) > MaxURILength {
		return "", fmt.Errorf("%w: %d chars", ErrURITooLong, len(uri))
	}
	return uri, nil
}
