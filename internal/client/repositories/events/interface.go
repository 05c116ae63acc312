// Package events persists the client audit log.
package events

import (
	"context"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
)

type Repository interface {
	Append(ctx context.Context, e *models.Event) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]*models.Event, error)
}
