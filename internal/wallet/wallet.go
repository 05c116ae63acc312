// Package wallet provides the signing identity used by the vault: an Ed25519
// key addressed by its base58 public key, persisted in a passphrase-protected
// keyfile.
package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Signer is a connected wallet. Implementations may prompt the user, talk to
// hardware or, as KeyWallet does, hold the key in memory.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Address() string
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

var ErrInvalidAddress = errors.New("invalid address")

// KeyWallet is an in-memory Ed25519 signer.
type KeyWallet struct {
	priv ed25519.PrivateKey
}

// Generate creates a wallet with a fresh random key.
func Generate() (*KeyWallet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyWallet{priv: priv}, nil
}

// FromSeed rebuilds a wallet from its 32-byte seed.
func FromSeed(seed []byte) (*KeyWallet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	return &KeyWallet{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (w *KeyWallet) PublicKey() ed25519.PublicKey {
	return w.priv.Public().(ed25519.PublicKey)
}

func (w *KeyWallet) Address() string {
	return Address(w.PublicKey())
}

func (w *KeyWallet) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(w.priv, msg), nil
}

// Seed exposes the private seed for keyfile persistence.
func (w *KeyWallet) Seed() []byte {
	return w.priv.Seed()
}

// Address encodes a public key as base58.
func Address(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}

// ParseAddress decodes a base58 address into a public key. Program-derived
// addresses are off the curve, have no private key and are rejected.
func ParseAddress(address string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(address)
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %q is not a wallet key", ErrInvalidAddress, address)
	}
	return ed25519.PublicKey(b), nil
}

// Verify checks sig over msg against the key behind address.
func Verify(address string, msg, sig []byte) bool {
	pub, err := ParseAddress(address)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
