package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr":      "www.example:9000",
		"database_dsn":       "postgres://x",
		"secret_key":         "my_secret_key",
		"session_validity":   "1m",
		"challenge_validity": "30s",
		"base_fee":           7,
		"per_byte_fee":       3,
		"initial_grant":      99,
		"storage":            "s3",
		"s3_bucket":          "b",
		"retrieval_rate":     1.5,
		"retrieval_burst":    4,
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddr)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Minute, cfg.SessionValidity)
		assert.Equal(t, 30*time.Second, cfg.ChallengeValidity)
		assert.Equal(t, int64(7), cfg.BaseFee)
		assert.Equal(t, int64(3), cfg.PerByteFee)
		assert.Equal(t, int64(99), cfg.InitialGrant)
		assert.Equal(t, StorageS3, cfg.Storage)
		assert.Equal(t, 1.5, cfg.RetrievalRate)
		assert.Equal(t, 4, cfg.RetrievalBurst)
	})

	t.Run("no config flag leaves values", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddr: ":1"}
		parseJson(cfg)
		assert.Equal(t, ":1", cfg.EndpointAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"testbin", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
