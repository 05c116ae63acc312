// Package accounts stores gateway account balances.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/healthkey/internal/server/models"
)

type Repository interface {
	// Ensure returns the account for address, creating it with grant in the
	// wallet balance when it does not exist yet.
	Ensure(ctx context.Context, address string, grant int64) (*models.Account, error)
	Get(ctx context.Context, address string) (*models.Account, error)
	// MoveToCredit moves amount from wallet to credit. It fails with
	// common.ErrInsufficientFunds when the wallet balance is too low.
	MoveToCredit(ctx context.Context, address string, amount int64) (*models.Account, error)
	// Debit takes amount from credit, or fails with
	// common.ErrInsufficientFunds.
	Debit(ctx context.Context, address string, amount int64) (*models.Account, error)
}
