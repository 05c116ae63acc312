package ledger

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type (
	// Instruction is a single program invocation.
	Instruction = solana.Instruction
	// AccountMeta describes how an instruction uses an account.
	AccountMeta = solana.AccountMeta
)

// Signer signs transaction messages. wallet.Signer satisfies it.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

var ErrNoSigner = errors.New("at least one signer required")

// NewTransaction compiles ixs against blockhash and signs the message with
// signers. The first signer pays the fees. Signing goes through Signer so
// keys that live outside the process work the same way as in-memory ones.
func NewTransaction(ctx context.Context, blockhash Hash, ixs []Instruction, signers ...Signer) (*solana.Transaction, error) {
	if len(signers) == 0 {
		return nil, ErrNoSigner
	}
	payer := PublicKeyFromEd25519(signers[0].PublicKey())

	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	tx.Signatures = make([]solana.Signature, 0, required)
	for _, key := range tx.Message.AccountKeys[:required] {
		var signer Signer
		for _, s := range signers {
			if PublicKeyFromEd25519(s.PublicKey()) == key {
				signer = s
				break
			}
		}
		if signer == nil {
			return nil, fmt.Errorf("missing signer for %s", key)
		}

		raw, err := signer.Sign(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if len(raw) != ed25519.SignatureSize {
			return nil, fmt.Errorf("signer returned %d-byte signature", len(raw))
		}
		var sig solana.Signature
		copy(sig[:], raw)
		tx.Signatures = append(tx.Signatures, sig)
	}

	return tx, nil
}
