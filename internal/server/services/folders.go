package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/dbx"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/repomanager"
)

// FolderService manages folders on behalf of their owner. A folder owned by
// someone else is reported as common.ErrorNotFound, never as forbidden.
type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFolderService(db *sql.DB, m repomanager.RepositoryManager) *FolderService {
	return &FolderService{db: db, repomanager: m}
}

func (s *FolderService) Create(ctx context.Context, name, ownerID string) (*models.Folder, error) {
	if err := checkName("folder name", name); err != nil {
		return nil, err
	}

	f, err := s.repomanager.Folders(s.db).Create(ctx, &models.Folder{Name: name, OwnerID: ownerID})
	if err != nil {
		return nil, storageErr("create folder", err)
	}
	f.Files = []*models.File{}
	return f, nil
}

// Get returns the folder together with its files.
func (s *FolderService) Get(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	f, err := s.repomanager.Folders(s.db).GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, storageErr("get folder", err)
	}

	f.Files, err = s.repomanager.Files(s.db).ListByFolder(ctx, f.ID)
	if err != nil {
		return nil, storageErr("list files", err)
	}
	return f, nil
}

func (s *FolderService) List(ctx context.Context, ownerID string) ([]*models.Folder, error) {
	list, err := s.repomanager.Folders(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list folders", err)
	}
	return list, nil
}

// Search matches fragment case-insensitively against the owner's folder
// names. No match is reported as common.ErrorNotFound.
func (s *FolderService) Search(ctx context.Context, fragment, ownerID string) ([]*models.Folder, error) {
	if blank(fragment) {
		return nil, invalid("search term must not be blank")
	}

	list, err := s.repomanager.Folders(s.db).SearchByName(ctx, fragment, ownerID)
	if err != nil {
		return nil, storageErr("search folders", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no folders match %q", common.ErrorNotFound, fragment)
	}
	return list, nil
}

func (s *FolderService) Rename(ctx context.Context, id, newName, ownerID string) (*models.Folder, error) {
	if err := checkName("folder name", newName); err != nil {
		return nil, err
	}

	var folder *models.Folder
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Folders(tx)
		if err := repo.UpdateName(ctx, id, ownerID, newName); err != nil {
			return storageErr("rename folder", err)
		}
		f, err := repo.GetByIDAndOwner(ctx, id, ownerID)
		if err != nil {
			return storageErr("get folder", err)
		}
		folder = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// Delete removes the folder and every file in it.
func (s *FolderService) Delete(ctx context.Context, id, ownerID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Folders(tx)
		if _, err := repo.GetByIDAndOwner(ctx, id, ownerID); err != nil {
			return storageErr("get folder", err)
		}
		if err := repo.Delete(ctx, id, ownerID); err != nil {
			return storageErr("delete folder", err)
		}
		return nil
	})
}
