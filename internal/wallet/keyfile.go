package wallet

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/cryptox"
)

var ErrWrongPassphrase = errors.New("wrong passphrase")

// Keyfile is the on-disk wallet format. The seed is sealed with AES-GCM under
// an argon2id key derived from the passphrase.
type Keyfile struct {
	Address    string `json:"address"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// SaveKeyfile writes w to path, protected by passphrase. Existing files are
// not overwritten.
func SaveKeyfile(path string, w *KeyWallet, passphrase []byte) error {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(key)

	seed := w.Seed()
	defer common.WipeByteArray(seed)

	ct, nonce, err := cryptox.SealWithKey(key, seed)
	if err != nil {
		return fmt.Errorf("seal seed: %w", err)
	}

	kf := Keyfile{
		Address:    w.Address(),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ct),
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create keyfile: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write keyfile: %w", err)
	}
	return f.Close()
}

// LoadKeyfile opens the keyfile at path with passphrase.
func LoadKeyfile(path string, passphrase []byte) (*KeyWallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var kf Keyfile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keyfile: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(kf.Salt)
	if err != nil {
		return nil, fmt.Errorf("keyfile salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(kf.Nonce)
	if err != nil {
		return nil, fmt.Errorf("keyfile nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(kf.CipherText)
	if err != nil {
		return nil, fmt.Errorf("keyfile ciphertext: %w", err)
	}

	key := cryptox.DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(key)

	seed, err := cryptox.OpenWithKey(key, ct, nonce)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	defer common.WipeByteArray(seed)

	w, err := FromSeed(seed)
	if err != nil {
		return nil, err
	}
	if kf.Address != "" && kf.Address != w.Address() {
		return nil, fmt.Errorf("keyfile address mismatch: %s", kf.Address)
	}
	return w, nil
}
