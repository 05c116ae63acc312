// Command reward invokes the reward_user instruction of the healthkey
// program for the wallet in a keyfile.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/program"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
	"golang.org/x/term"
)

type options struct {
	keyfile   string
	rpcURL    string
	programID string
	mint      string
	amount    uint64
}

func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("reward", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.keyfile, "w", "healthkey-wallet.json", "wallet keyfile of the rewarded user")
	fs.StringVar(&o.rpcURL, "n", "http://127.0.0.1:8899", "ledger RPC URL")
	fs.StringVar(&o.programID, "program", "", "program id override")
	fs.StringVar(&o.mint, "mint", "", "reward token mint")
	fs.Uint64Var(&o.amount, "amount", 0, "reward amount in token base units")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.mint == "" {
		return nil, errors.New("-mint is required")
	}
	if o.amount == 0 {
		return nil, program.ErrInvalidAmount
	}
	return o, nil
}

func run(ctx context.Context, o *options) error {
	logger := logging.NewTextLogger(os.Stderr, slog.LevelInfo)

	mint, err := ledger.ParsePublicKey(o.mint)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if o.programID != "" {
		id, err := ledger.ParsePublicKey(o.programID)
		if err != nil {
			return fmt.Errorf("program id: %w", err)
		}
		program.ID = id
	}

	fmt.Fprint(os.Stderr, "Enter wallet passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read passphrase: %w", err)
	}

	w, err := wallet.LoadKeyfile(o.keyfile, pass)
	if err != nil {
		return err
	}

	rpc := ledger.NewRPCClient(o.rpcURL, &http.Client{Timeout: 30 * time.Second})
	sender := ledger.NewSender(rpc, 500*time.Millisecond, logger)
	client := program.NewClient(sender, rpc)

	r, err := client.RewardUser(ctx, w, mint, o.amount)
	if err != nil {
		return err
	}
	logger.Info(ctx, "reward confirmed", "user", w.Address(), "amount", o.amount, "signature", r.Signature, "slot", r.Slot)
	return nil
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
