// Package ledger talks to a Solana-compatible public ledger: it signs
// transactions, submits them over JSON-RPC, waits for confirmation and writes
// memo anchors that point at off-chain objects.
package ledger

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type (
	// PublicKey is a 32-byte account address.
	PublicKey = solana.PublicKey
	// Hash is a 32-byte blockhash.
	Hash = solana.Hash
)

var (
	SystemProgramID          = solana.SystemProgramID
	MemoProgramID            = solana.MemoProgramID
	TokenProgramID           = solana.TokenProgramID
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
)

func ParsePublicKey(s string) (PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decode %q: %w", s, err)
	}
	return pk, nil
}

func MustPublicKey(s string) PublicKey {
	return solana.MustPublicKeyFromBase58(s)
}

// PublicKeyFromEd25519 converts a wallet key into an account address.
func PublicKeyFromEd25519(pub ed25519.PublicKey) PublicKey {
	return solana.PublicKeyFromBytes(pub)
}
