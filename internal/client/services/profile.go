package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthkey/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/dmitrijs2005/healthkey/internal/program"
)

// ProfileChain is the on-chain profile API. *program.Client satisfies it.
type ProfileChain interface {
	InitializeUserProfile(ctx context.Context, authority ledger.Signer, storagePointer, goal string) (*ledger.Receipt, error)
	UserProfile(ctx context.Context, authority ledger.PublicKey) (*program.UserProfile, error)
}

// ProfileService manages the connected wallet's on-chain profile, which
// points at one of its uploads.
type ProfileService interface {
	Init(ctx context.Context, storageID, goal string) (*ledger.Receipt, error)
	Show(ctx context.Context) (*program.UserProfile, error)
}

type profileService struct {
	chain    ProfileChain
	wallet   *WalletSession
	uploads  uploads.Repository
	metadata metadata.Repository
}

func NewProfileService(chain ProfileChain, wallet *WalletSession, uploads uploads.Repository, metadata metadata.Repository) ProfileService {
	return &profileService{chain: chain, wallet: wallet, uploads: uploads, metadata: metadata}
}

// Init creates the profile. storageID must be a local upload of the
// connected wallet.
func (s *profileService) Init(ctx context.Context, storageID, goal string) (*ledger.Receipt, error) {
	signer, err := s.wallet.Signer()
	if err != nil {
		return nil, err
	}

	rec, err := s.uploads.GetByID(ctx, storageID)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", storageID, err)
	}
	if rec.Owner != signer.Address() {
		return nil, ErrNotOwner
	}

	r, err := s.chain.InitializeUserProfile(ctx, signer, storageID, goal)
	if err != nil {
		return nil, err
	}
	if err := s.metadata.Set(ctx, metadata.KeyProfilePointer, []byte(storageID)); err != nil {
		return r, fmt.Errorf("profile created, but saving pointer failed: %w", err)
	}
	return r, nil
}

// Show returns common.ErrorNotFound when the wallet has no profile.
func (s *profileService) Show(ctx context.Context) (*program.UserProfile, error) {
	signer, err := s.wallet.Signer()
	if err != nil {
		return nil, err
	}
	p, err := s.chain.UserProfile(ctx, ledger.PublicKeyFromEd25519(signer.PublicKey()))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.ErrorNotFound
	}
	return p, nil
}
