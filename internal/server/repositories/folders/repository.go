package folders

import (
	"context"

	"github.com/dmitrijs2005/textdrive/internal/server/models"
)

// Repository persists folders. Every lookup and mutation is scoped to the
// owner; a folder of another user is reported as common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Folder, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Folder, error)
	SearchByName(ctx context.Context, fragment, ownerID string) ([]*models.Folder, error)
	UpdateName(ctx context.Context, id, ownerID, name string) error
	Delete(ctx context.Context, id, ownerID string) error
}
