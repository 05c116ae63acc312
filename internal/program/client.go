package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// AccountReader fetches raw account state. *rpc.Client satisfies it.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// Client submits healthkey_protocol instructions.
type Client struct {
	sender   *ledger.Sender
	accounts AccountReader
}

func NewClient(sender *ledger.Sender, accounts AccountReader) *Client {
	return &Client{sender: sender, accounts: accounts}
}

func (c *Client) InitializeUserProfile(ctx context.Context, authority ledger.Signer, storagePointer, goal string) (*ledger.Receipt, error) {
	ix, err := NewInitializeUserProfileInstruction(ledger.PublicKeyFromEd25519(authority.PublicKey()), storagePointer, goal)
	if err != nil {
		return nil, err
	}
	r, err := c.sender.SendAndConfirm(ctx, []ledger.Instruction{ix}, authority)
	if err != nil {
		return nil, fmt.Errorf("initialize_user_profile: %w", err)
	}
	return r, nil
}

// RewardUser is signed by the receiving user, who pays for their token
// account if it does not exist yet.
func (c *Client) RewardUser(ctx context.Context, user ledger.Signer, mint ledger.PublicKey, amount uint64) (*ledger.Receipt, error) {
	ix, err := NewRewardUserInstruction(ledger.PublicKeyFromEd25519(user.PublicKey()), mint, amount)
	if err != nil {
		return nil, err
	}
	r, err := c.sender.SendAndConfirm(ctx, []ledger.Instruction{ix}, user)
	if err != nil {
		return nil, fmt.Errorf("reward_user: %w", err)
	}
	return r, nil
}

// UserProfile returns nil, nil when authority has no profile yet.
func (c *Client) UserProfile(ctx context.Context, authority ledger.PublicKey) (*UserProfile, error) {
	addr, _, err := UserProfileAddress(authority)
	if err != nil {
		return nil, err
	}
	info, err := c.accounts.GetAccountInfo(ctx, addr)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info == nil || info.Value == nil {
		return nil, nil
	}
	if info.Value.Owner != ID {
		return nil, ErrNotUserProfile
	}
	return DecodeUserProfile(info.Value.Data.GetBinary())
}
