// Package fundings records processed fund requests for idempotency.
package fundings

import (
	"context"

	"github.com/dmitrijs2005/healthkey/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrorAlreadyExists when the key was used.
	Create(ctx context.Context, f *models.Funding) error
	Get(ctx context.Context, key string) (*models.Funding, error)
}
