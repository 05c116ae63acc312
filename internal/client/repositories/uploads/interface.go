package uploads

import (
	"context"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.UploadRecord) error
	GetByID(ctx context.Context, storageID string) (*models.UploadRecord, error)
	ListByOwner(ctx context.Context, owner string) ([]*models.UploadRecord, error)
	List(ctx context.Context) ([]*models.UploadRecord, error)
}
