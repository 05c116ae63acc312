package config

import "time"

// Config holds runtime settings for the HealthKey CLI.
//
// RetrievalURL defaults to GatewayURL when empty. ProgramID and Mint are
// base58 addresses; Mint is only needed for rewards.
type Config struct {
	GatewayURL   string
	RetrievalURL string
	RPCURL       string
	ProgramID    string
	Mint         string

	WalletPath   string
	DatabasePath string
	BlobDir      string

	Anchor          bool
	ConfirmInterval time.Duration
	RequestTimeout  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayURL = "http://127.0.0.1:8080"
	c.RetrievalURL = ""
	c.RPCURL = "http://127.0.0.1:8899"
	c.ProgramID = "2aPJ91YqkdpSTucNwBxGa42uwoHUCdhx6A4qeBkBrNkJ"
	c.Mint = ""
	c.WalletPath = "healthkey-wallet.json"
	c.DatabasePath = "healthkey.db"
	c.BlobDir = ""
	c.Anchor = true
	c.ConfirmInterval = 500 * time.Millisecond
	c.RequestTimeout = 30 * time.Second
}

// Retrieval returns the base URL objects are fetched from.
func (c *Config) Retrieval() string {
	if c.RetrievalURL != "" {
		return c.RetrievalURL
	}
	return c.GatewayURL
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
