package wallet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyWallet_SignVerify(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	msg := []byte("healthkey")
	sig, err := w.Sign(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, Verify(w.Address(), msg, sig))
	assert.False(t, Verify(w.Address(), []byte("other"), sig))
	assert.False(t, Verify("not-base58-0OIl", msg, sig))
}

func TestKeyWallet_SignHonorsContext(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.Sign(ctx, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestAddress_RoundTrip(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	pub, err := ParseAddress(w.Address())
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), pub)

	_, err = ParseAddress("abc")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestParseAddress_RejectsOffCurve(t *testing.T) {
	// y = 2 has no matching x on the curve
	raw := make([]byte, 32)
	raw[0] = 2
	offCurve := Address(raw)

	_, err := ParseAddress(offCurve)
	require.ErrorIs(t, err, ErrInvalidAddress)
	assert.False(t, Verify(offCurve, []byte("m"), make([]byte, 64)))
}

func TestFromSeed_Deterministic(t *testing.T) {
	seed := make([]byte, 32)
	a, err := FromSeed(seed)
	require.NoError(t, err)
	b, err := FromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, a.Address(), b.Address())

	_, err = FromSeed([]byte{1})
	require.Error(t, err)
}

func TestKeyfile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	w, err := Generate()
	require.NoError(t, err)

	require.NoError(t, SaveKeyfile(path, w, []byte("correct horse")))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	loaded, err := LoadKeyfile(path, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, w.Address(), loaded.Address())

	_, err = LoadKeyfile(path, []byte("wrong"))
	require.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestKeyfile_DoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	w, err := Generate()
	require.NoError(t, err)

	require.NoError(t, SaveKeyfile(path, w, []byte("p")))
	require.Error(t, SaveKeyfile(path, w, []byte("p")))
}

func TestLoadKeyfile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadKeyfile(path, []byte("p"))
	require.Error(t, err)

	_, err = LoadKeyfile(filepath.Join(t.TempDir(), "missing.json"), []byte("p"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
