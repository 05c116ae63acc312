package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/healthkey/internal/flagx"
	"github.com/dmitrijs2005/healthkey/internal/timex"
)

// JsonConfig is the on-disk form of Config. Pointer and zero-value fields
// that are absent leave the current Config value untouched.
type JsonConfig struct {
	GatewayURL      string          `json:"gateway_url"`
	RetrievalURL    string          `json:"retrieval_url"`
	RPCURL          string          `json:"rpc_url"`
	ProgramID       string          `json:"program_id"`
	Mint            string          `json:"mint"`
	WalletPath      string          `json:"wallet_path"`
	DatabasePath    string          `json:"database_path"`
	BlobDir         string          `json:"blob_dir"`
	Anchor          *bool           `json:"anchor"`
	ConfirmInterval *timex.Duration `json:"confirm_interval"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with the file named by -c / -config. Read and
// decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.GatewayURL, jc.GatewayURL)
	setString(&cfg.RetrievalURL, jc.RetrievalURL)
	setString(&cfg.RPCURL, jc.RPCURL)
	setString(&cfg.ProgramID, jc.ProgramID)
	setString(&cfg.Mint, jc.Mint)
	setString(&cfg.WalletPath, jc.WalletPath)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.BlobDir, jc.BlobDir)

	if jc.Anchor != nil {
		cfg.Anchor = *jc.Anchor
	}
	if jc.ConfirmInterval != nil {
		cfg.ConfirmInterval = jc.ConfirmInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
