package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/healthkey/internal/flagx"
	"github.com/dmitrijs2005/healthkey/internal/timex"
)

// JsonConfig is the on-disk form of Config. Intervals use timex.Duration so
// both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddr      string         `json:"endpoint_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	SessionValidity   timex.Duration `json:"session_validity"`
	ChallengeValidity timex.Duration `json:"challenge_validity"`
	BaseFee           int64          `json:"base_fee"`
	PerByteFee        int64          `json:"per_byte_fee"`
	InitialGrant      int64          `json:"initial_grant"`
	Storage           string         `json:"storage"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	RetrievalRate     float64        `json:"retrieval_rate"`
	RetrievalBurst    int            `json:"retrieval_burst"`
}

// parseJson loads the file named by -c / -config into config. Unlike the
// flag layer it replaces every field, so the file should be complete.
// Read and decode errors panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionValidity = c.SessionValidity.Duration
	config.ChallengeValidity = c.ChallengeValidity.Duration
	config.BaseFee = c.BaseFee
	config.PerByteFee = c.PerByteFee
	config.InitialGrant = c.InitialGrant
	config.Storage = c.Storage
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.RetrievalRate = c.RetrievalRate
	config.RetrievalBurst = c.RetrievalBurst
}
