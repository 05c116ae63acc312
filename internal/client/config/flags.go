package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/healthkey/internal/flagx"
)

var knownFlags = []string{
	"-g", "-r", "-n", "-program", "-mint", "-w", "-d", "-b", "-anchor", "-p", "-t",
}

// parseFlags populates Config fields from command-line flags. os.Args is
// filtered through flagx.FilterArgs so flags owned by other components are
// ignored. Invalid values panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.GatewayURL, "g", cfg.GatewayURL, "storage gateway URL")
	fs.StringVar(&cfg.RetrievalURL, "r", cfg.RetrievalURL, "retrieval URL")
	fs.StringVar(&cfg.RPCURL, "n", cfg.RPCURL, "ledger JSON-RPC URL")
	fs.StringVar(&cfg.ProgramID, "program", cfg.ProgramID, "program id")
	fs.StringVar(&cfg.Mint, "mint", cfg.Mint, "reward token mint")
	fs.StringVar(&cfg.WalletPath, "w", cfg.WalletPath, "wallet keyfile")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database")
	fs.StringVar(&cfg.BlobDir, "b", cfg.BlobDir, "blob directory")
	fs.BoolVar(&cfg.Anchor, "anchor", cfg.Anchor, "anchor uploads on the ledger")
	fs.DurationVar(&cfg.ConfirmInterval, "p", cfg.ConfirmInterval, "confirmation poll interval")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "HTTP request timeout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
