// Package challenges stores session nonces until they are used or expire.
package challenges

import (
	"context"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Challenge) error
	// Consume deletes and returns the challenge. A nonce can be consumed
	// once; unknown nonces are common.ErrorNotFound.
	Consume(ctx context.Context, address, nonce string) (*models.Challenge, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
