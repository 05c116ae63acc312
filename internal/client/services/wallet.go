package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/cryptox"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
)

var ErrNotOwner = errors.New("record belongs to a different wallet")

// WalletSession holds the connected wallet and the per-connection secrets
// derived from it: the key-wrap signature and the object material of
// uploads made in this session. Everything is dropped on Disconnect.
type WalletSession struct {
	mu        sync.RWMutex
	signer    wallet.Signer
	wrapSig   []byte
	materials map[string]cryptox.Material
}

func NewWalletSession() *WalletSession {
	return &WalletSession{materials: make(map[string]cryptox.Material)}
}

func (w *WalletSession) Connect(signer wallet.Signer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.signer = signer
}

func (w *WalletSession) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *WalletSession) resetLocked() {
	common.WipeByteArray(w.wrapSig)
	for id, m := range w.materials {
		common.WipeByteArray(m.Key)
		delete(w.materials, id)
	}
	w.signer = nil
	w.wrapSig = nil
}

// Signer returns the connected wallet or common.ErrWalletNotConnected.
func (w *WalletSession) Signer() (wallet.Signer, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.signer == nil {
		return nil, common.ErrWalletNotConnected
	}
	return w.signer, nil
}

func (w *WalletSession) remember(storageID string, m cryptox.Material) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signer != nil {
		w.materials[storageID] = m
	}
}

func (w *WalletSession) material(storageID string) (cryptox.Material, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	m, ok := w.materials[storageID]
	return m, ok
}

// wrapSignature signs common.KeyWrapMessage once per connection. Ed25519
// signatures are deterministic, so the same wallet always derives the same
// key-encryption keys.
func (w *WalletSession) wrapSignature(ctx context.Context) ([]byte, wallet.Signer, error) {
	w.mu.RLock()
	signer, sig := w.signer, w.wrapSig
	w.mu.RUnlock()

	if signer == nil {
		return nil, nil, common.ErrWalletNotConnected
	}
	if sig != nil {
		return sig, signer, nil
	}

	sig, err := signer.Sign(ctx, []byte(common.KeyWrapMessage))
	if err != nil {
		return nil, nil, fmt.Errorf("sign key-wrap message: %w", err)
	}

	w.mu.Lock()
	if w.signer == signer {
		w.wrapSig = sig
	}
	w.mu.Unlock()
	return sig, signer, nil
}

// WrapKey seals an object key for storage under a fresh salt.
func (w *WalletSession) WrapKey(ctx context.Context, key []byte) (models.WrappedKey, error) {
	sig, _, err := w.wrapSignature(ctx)
	if err != nil {
		return models.WrappedKey{}, err
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	kek, err := cryptox.DeriveWrappingKey(sig, salt)
	if err != nil {
		return models.WrappedKey{}, err
	}
	defer common.WipeByteArray(kek)

	wrapped, nonce, err := cryptox.WrapKey(kek, key)
	if err != nil {
		return models.WrappedKey{}, err
	}
	return models.WrappedKey{Salt: salt, Nonce: nonce, Ciphertext: wrapped}, nil
}

// UnwrapKey recovers an object key. Only the owning wallet can do this.
func (w *WalletSession) UnwrapKey(ctx context.Context, owner string, wk models.WrappedKey) ([]byte, error) {
	sig, signer, err := w.wrapSignature(ctx)
	if err != nil {
		return nil, err
	}
	if signer.Address() != owner {
		return nil, fmt.Errorf("%w: owner %s, connected %s", ErrNotOwner, owner, signer.Address())
	}

	kek, err := cryptox.DeriveWrappingKey(sig, wk.Salt)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(kek)

	return cryptox.UnwrapKey(kek, wk.Ciphertext, wk.Nonce)
}
