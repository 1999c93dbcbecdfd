package files

import (
	"context"

	"github.com/dmitrijs2005/textdrive/internal/server/models"
)

// Repository persists files. A file's owner is the owner of its folder, so
// owner scoped methods join through folders.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.File, error)
	ListByFolder(ctx context.Context, folderID string) ([]*models.File, error)
	SearchByName(ctx context.Context, fragment, ownerID string) ([]*models.File, error)
	UpdateName(ctx context.Context, id, ownerID, name string) error
	Delete(ctx context.Context, id, ownerID string) error
}
