package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session validity, minutes
//	-fee int    base fee per transaction
//	-byte int   fee per byte
//	-grant int  wallet grant for new accounts
//	-storage    "memory" or "s3"
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-rps float  retrieval requests per second per IP
//
// Invalid values panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-fee", "-byte", "-grant", "-storage", "-u", "-p", "-b", "-g", "-e", "-rps",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidity.Minutes()), "session validity (in minutes)")

	fs.Int64Var(&config.BaseFee, "fee", config.BaseFee, "base fee per transaction")
	fs.Int64Var(&config.PerByteFee, "byte", config.PerByteFee, "fee per byte")
	fs.Int64Var(&config.InitialGrant, "grant", config.InitialGrant, "wallet grant for new accounts")
	fs.StringVar(&config.Storage, "storage", config.Storage, "blob storage: memory or s3")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.Float64Var(&config.RetrievalRate, "rps", config.RetrievalRate, "retrieval requests per second per IP")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidity = time.Duration(*sessionValidity) * time.Minute
}
