package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/healthkey/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/dmitrijs2005/healthkey/internal/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	profiles map[ledger.PublicKey]*program.UserProfile
	err      error
}

func (c *fakeChain) InitializeUserProfile(ctx context.Context, authority ledger.Signer, pointer, goal string) (*ledger.Receipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	pk := ledger.PublicKeyFromEd25519(authority.PublicKey())
	c.profiles[pk] = &program.UserProfile{Authority: pk, StoragePointer: pointer, Goal: goal}
	return &ledger.Receipt{Signature: "init-sig"}, nil
}

func (c *fakeChain) UserProfile(ctx context.Context, authority ledger.PublicKey) (*program.UserProfile, error) {
	return c.profiles[authority], nil
}

func TestProfileService_InitAndShow(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.nextID = "abc123"
	h.connect(t)
	ctx := context.Background()

	chain := &fakeChain{profiles: map[ledger.PublicKey]*program.UserProfile{}}
	svc := NewProfileService(chain, h.wallet, h.uploads, h.metadata)

	_, err := svc.Show(ctx)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.Init(ctx, "abc123", "10k steps")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = h.pipeline.Upload(ctx, UploadRequest{Name: "plan.txt", Data: []byte("walk")})
	require.NoError(t, err)

	r, err := svc.Init(ctx, "abc123", "10k steps")
	require.NoError(t, err)
	assert.Equal(t, "init-sig", r.Signature)

	ptr, err := h.metadata.Get(ctx, metadata.KeyProfilePointer)
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(ptr))

	p, err := svc.Show(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", p.StoragePointer)
	assert.Equal(t, "10k steps", p.Goal)
}

func TestProfileService_RejectsForeignUpload(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.nextID = "abc123"
	h.connect(t)
	ctx := context.Background()

	_, err := h.pipeline.Upload(ctx, UploadRequest{Name: "plan.txt", Data: []byte("walk")})
	require.NoError(t, err)

	h.connect(t)
	chain := &fakeChain{profiles: map[ledger.PublicKey]*program.UserProfile{}, err: errors.New("unreachable")}
	svc := NewProfileService(chain, h.wallet, h.uploads, h.metadata)

	_, err = svc.Init(ctx, "abc123", "goal")
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestProfileService_RequiresWallet(t *testing.T) {
	h := newHarness(t, nil)
	svc := NewProfileService(&fakeChain{}, h.wallet, h.uploads, h.metadata)

	_, err := svc.Show(context.Background())
	require.ErrorIs(t, err, common.ErrWalletNotConnected)
}
