package users

import (
	"context"

	"github.com/dmitrijs2005/textdrive/internal/server/models"
)

// Repository persists users. Lookups return common.ErrorNotFound when no
// row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByExternalID(ctx context.Context, provider, externalID string) (*models.User, error)
}
