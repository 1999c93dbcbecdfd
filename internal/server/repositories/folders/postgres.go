// Package folders is the PostgreSQL storage of folders.
package folders

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

func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO folders (id, name, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, folder.ID, folder.Name, folder.OwnerID).Scan(&folder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	query :=
		`SELECT id, name, owner_id, created_at FROM folders
		 WHERE id = $1 AND owner_id = $2
		 `

	f := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return f, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Folder, error) {
	query :=
		`SELECT id, name, owner_id, created_at FROM folders
		 WHERE owner_id = $1
		 ORDER BY created_at, id
		 `
	return r.list(ctx, query, ownerID)
}

// SearchByName returns the owner's folders whose name contains fragment,
// ignoring case. The fragment is matched literally.
func (r *PostgresRepository) SearchByName(ctx context.Context, fragment, ownerID string) ([]*models.Folder, error) {
	query :=
		`SELECT id, name, owner_id, created_at FROM folders
		 WHERE owner_id = $1 AND name ILIKE $2
		 ORDER BY created_at, id
		 `
	return r.list(ctx, query, ownerID, dbx.ContainsPattern(fragment))
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id, ownerID, name string) error {
	query :=
		`UPDATE folders SET name = $3
		 WHERE id = $1 AND owner_id = $2
		 `
	return r.execOne(ctx, query, id, ownerID, name)
}

// Delete removes the folder; its files go with it through the foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query :=
		`DELETE FROM folders
		 WHERE id = $1 AND owner_id = $2
		 `
	return r.execOne(ctx, query, id, ownerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Folder, 0)
	for rows.Next() {
		f := &models.Folder{}
		if err := rows.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt); err != nil {
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
