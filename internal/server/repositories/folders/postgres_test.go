package folders

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+folders\s*\(id,\s*name,\s*owner_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`
	getQ    = `(?s)^SELECT\s+id,\s*name,\s*owner_id,\s*created_at\s+FROM\s+folders\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s*$`
	listQ   = `(?s)^SELECT\s+id,\s*name,\s*owner_id,\s*created_at\s+FROM\s+folders\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at,\s*id\s*$`
	searchQ = `(?s)^SELECT\s+id,\s*name,\s*owner_id,\s*created_at\s+FROM\s+folders\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+name\s+ILIKE\s+\$2\s+ORDER\s+BY\s+created_at,\s*id\s*$`
	updateQ = `(?s)^UPDATE\s+folders\s+SET\s+name\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s*$`
	deleteQ = `(?s)^DELETE\s+FROM\s+folders\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s*$`
)

var cols = []string{"id", "name", "owner_id", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertQ).
		WithArgs(sqlmock.AnyArg(), "notes", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(ts))

	got, err := repo.Create(context.Background(), &models.Folder{Name: "notes", OwnerID: "u-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, ts, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	mock.ExpectQuery(insertQ).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Folder{Name: "notes", OwnerID: "u-1"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*fk violation`), err.Error())
}

func TestGetByIDAndOwner(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(getQ).WithArgs("f-1", "u-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("f-1", "notes", "u-1", time.Now()))
	got, err := repo.GetByIDAndOwner(context.Background(), "f-1", "u-1")
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Name)

	mock.ExpectQuery(getQ).WithArgs("f-1", "u-2").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByIDAndOwner(context.Background(), "f-1", "u-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(getQ).WithArgs("f-1", "u-1").WillReturnError(errors.New("boom"))
	_, err = repo.GetByIDAndOwner(context.Background(), "f-1", "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f-1", "notes", "u-1", time.Now()).
			AddRow("f-2", "work", "u-1", time.Now()))

	got, err := repo.ListByOwner(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f-1", got[0].ID)
	assert.Equal(t, "f-2", got[1].ID)
}

func TestListByOwner_EmptyIsNotNil(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	mock.ExpectQuery(listQ).WithArgs("u-1").WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListByOwner(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByOwner_RowError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	mock.ExpectQuery(listQ).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f-1", "notes", "u-1", time.Now()).
			RowError(0, errors.New("broken row")))

	_, err := repo.ListByOwner(context.Background(), "u-1")
	require.Error(t, err)
}

func TestSearchByName_EscapesPattern(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(searchQ).WithArgs("u-1", `%50\%%`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("f-9", "50% done", "u-1", time.Now()))

	got, err := repo.SearchByName(context.Background(), "50%", "u-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "50% done", got[0].Name)
}

func TestUpdateName(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("f-1", "u-1", "archive").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateName(context.Background(), "f-1", "u-1", "archive"))

	mock.ExpectExec(updateQ).WithArgs("f-1", "u-2", "archive").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateName(context.Background(), "f-1", "u-2", "archive"), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs("f-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "f-1", "u-1"))

	mock.ExpectExec(deleteQ).WithArgs("f-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "f-1", "u-1"), common.ErrorNotFound)

	mock.ExpectExec(deleteQ).WithArgs("f-1", "u-1").WillReturnError(errors.New("locked"))
	err := repo.Delete(context.Background(), "f-1", "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}
