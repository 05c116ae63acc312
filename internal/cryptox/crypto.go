// Package cryptox implements client-side encryption for HealthKey objects.
//
// Every object is sealed with AES-256-GCM under its own random key and a
// random 12-byte IV. The object key never leaves the process in plain form:
// before it is persisted it is wrapped under a key-encryption key derived
// with HKDF from a wallet signature (see DeriveWrappingKey).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// IVSize is the GCM nonce length.
	IVSize = 12
	// SaltSize is used for argon2 and HKDF salts.
	SaltSize = 16

	wrapInfo = "healthkey-object-key-wrap"
)

// Material is the per-object secret needed to decrypt a ciphertext.
type Material struct {
	IV  []byte
	Key []byte
}

// Sealed is the output of Encrypt.
type Sealed struct {
	Cipher []byte
	Material
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under a freshly generated key and IV. The GCM tag is
// appended to the returned ciphertext.
func Encrypt(plaintext []byte) (*Sealed, error) {
	key := common.GenerateRandByteArray(KeySize)
	iv := common.GenerateRandByteArray(IVSize)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	return &Sealed{
		Cipher:   aesgcm.Seal(nil, iv, plaintext, nil),
		Material: Material{IV: iv, Key: key},
	}, nil
}

// Decrypt opens ciphertext produced by Encrypt. Authentication failures and
// malformed material are reported as common.ErrDecryptionFailed.
func Decrypt(ciphertext []byte, m Material) ([]byte, error) {
	if len(m.IV) != IVSize || len(m.Key) != KeySize {
		return nil, fmt.Errorf("%w: malformed key material", common.ErrDecryptionFailed)
	}

	aesgcm, err := newGCM(m.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	plaintext, err := aesgcm.Open(nil, m.IV, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

// ExportKey returns the serializable form of an object key.
func ExportKey(key []byte) string {
	return base64.RawURLEncoding.EncodeToString(key)
}

// ImportKey parses a key produced by ExportKey.
func ImportKey(s string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// DeriveWrappingKey derives a 256-bit key-encryption key from a wallet
// signature over common.KeyWrapMessage and a per-object salt.
func DeriveWrappingKey(signature, salt []byte) ([]byte, error) {
	if len(signature) == 0 {
		return nil, fmt.Errorf("empty signature")
	}
	r := hkdf.New(sha256.New, signature, salt, []byte(wrapInfo))
	kek := make([]byte, KeySize)
	if _, err := io.ReadFull(r, kek); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return kek, nil
}

// WrapKey seals an object key under kek.
func WrapKey(kek, key []byte) (wrapped, nonce []byte, err error) {
	aesgcm, err := newGCM(kek)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nil, nonce, key, nil), nonce, nil
}

// UnwrapKey reverses WrapKey.
func UnwrapKey(kek, wrapped, nonce []byte) ([]byte, error) {
	aesgcm, err := newGCM(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: malformed wrap nonce", common.ErrDecryptionFailed)
	}
	key, err := aesgcm.Open(nil, nonce, wrapped, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return key, nil
}

// DeriveMasterKey stretches a passphrase with argon2id. It protects the local
// wallet keyfile.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// SealWithKey encrypts plaintext under a caller-provided key. Used for the
// wallet keyfile, where the key comes from DeriveMasterKey.
func SealWithKey(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	return WrapKey(key, plaintext)
}

// OpenWithKey reverses SealWithKey.
func OpenWithKey(key, ciphertext, nonce []byte) ([]byte, error) {
	return UnwrapKey(key, ciphertext, nonce)
}
