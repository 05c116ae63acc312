package ledger

import (
	"context"
	"fmt"
)

// AnchorReceipt records a memo anchor on the ledger.
type AnchorReceipt struct {
	Receipt
	Memo string
}

// Anchorer writes memo transactions.
type Anchorer struct {
	sender *Sender
}

func NewAnchorer(sender *Sender) *Anchorer {
	return &Anchorer{sender: sender}
}

// Anchor publishes memo signed by signer, who also pays the fee.
func (a *Anchorer) Anchor(ctx context.Context, signer Signer, memo string) (*AnchorReceipt, error) {
	ix, err := NewMemoInstruction(memo, PublicKeyFromEd25519(signer.PublicKey()))
	if err != nil {
		return nil, err
	}

	r, err := a.sender.SendAndConfirm(ctx, []Instruction{ix}, signer)
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}
	return &AnchorReceipt{Receipt: *r, Memo: memo}, nil
}
