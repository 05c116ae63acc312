// Package transactions stores metadata of uploaded objects.
package transactions

import (
	"context"

	"github.com/dmitrijs2005/healthkey/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrorAlreadyExists on a duplicate id.
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
}
