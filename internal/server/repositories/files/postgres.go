// Package files is the PostgreSQL storage of text files.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/dbx"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts file. The caller is expected to have checked that the
// target folder belongs to the uploader.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO files (id, name, content, folder_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, file.ID, file.Name, file.Content, file.FolderID).Scan(&file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.File, error) {
	query :=
		`SELECT f.id, f.name, f.content, f.folder_id, f.created_at
		 FROM files f JOIN folders d ON d.id = f.folder_id
		 WHERE f.id = $1 AND d.owner_id = $2
		 `

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&file.ID, &file.Name, &file.Content, &file.FolderID, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID string) ([]*models.File, error) {
	query :=
		`SELECT id, name, content, folder_id, created_at FROM files
		 WHERE folder_id = $1
		 ORDER BY created_at, id
		 `
	return r.list(ctx, query, folderID)
}

func (r *PostgresRepository) SearchByName(ctx context.Context, fragment, ownerID string) ([]*models.File, error) {
	query :=
		`SELECT f.id, f.name, f.content, f.folder_id, f.created_at
		 FROM files f JOIN folders d ON d.id = f.folder_id
		 WHERE d.owner_id = $1 AND f.name ILIKE $2
		 ORDER BY f.created_at, f.id
		 `
	return r.list(ctx, query, ownerID, dbx.ContainsPattern(fragment))
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id, ownerID, name string) error {
	query :=
		`UPDATE files SET name = $3
		 WHERE id = $1
		   AND folder_id IN (SELECT id FROM folders WHERE owner_id = $2)
		 `
	return r.execOne(ctx, query, id, ownerID, name)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query :=
		`DELETE FROM files
		 WHERE id = $1
		   AND folder_id IN (SELECT id FROM folders WHERE owner_id = $2)
		 `
	return r.execOne(ctx, query, id, ownerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Content, &f.FolderID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
