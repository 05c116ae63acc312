package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
)

// Test seams for interactive input and keyfile access.
var (
	getPassword = GetPassword
	loadKeyfile = wallet.LoadKeyfile
	saveKeyfile = wallet.SaveKeyfile
)

// Connect unlocks the configured keyfile, creating a new wallet there on
// first use, and connects it to the vault.
func (a *App) Connect(ctx context.Context) error {
	path := a.config.WalletPath

	passphrase, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	var w *wallet.KeyWallet
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		if len(passphrase) == 0 {
			return fmt.Errorf("%w: empty passphrase", common.ErrorValidation)
		}
		w, err = wallet.Generate()
		if err != nil {
			return err
		}
		if err := saveKeyfile(path, w, passphrase); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "New wallet saved to %s\n", path)
	} else {
		w, err = loadKeyfile(path, passphrase)
		if err != nil {
			return err
		}
	}

	if err := a.pipeline.Connect(ctx, w); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Connected: %s\n", w.Address())
	return nil
}

// Disconnect forgets the wallet and every secret derived from it.
func (a *App) Disconnect(ctx context.Context) error {
	a.pipeline.Disconnect(ctx)
	if err := a.blobs.Close(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Disconnected")
	return nil
}

func (a *App) Address(ctx context.Context) error {
	address, err := a.pipeline.Address()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, address)
	return nil
}

func (a *App) Balance(ctx context.Context) error {
	b, err := a.pipeline.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wallet: %d\nGateway credit: %d\n", b.Wallet, b.Credit)
	return nil
}
