package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/dbx"
	"github.com/dmitrijs2005/textdrive/internal/server/auth"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/folders"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTxDB returns a real *sql.DB so dbx.WithTx can begin and commit; the
// repositories themselves live in memory and ignore it.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTokens() *auth.TokenService {
	return auth.NewTokenService([]byte("test-secret"), "textdrive", time.Hour)
}

type fixture struct {
	db      *sql.DB
	repos   *repomanager.InMemoryRepositoryManager
	users   *UserService
	folders *FolderService
	files   *FileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTxDB(t)
	repos := repomanager.NewInMemoryRepositoryManager()
	return &fixture{
		db:      db,
		repos:   repos,
		users:   NewUserService(db, repos, newTokens()),
		folders: NewFolderService(db, repos),
		files:   NewFileService(db, repos),
	}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), name, "password1")
	require.NoError(t, err)
	return u
}

var errStorage = errors.New("connection reset")

type brokenUsers struct{ users.Repository }

func (brokenUsers) GetByUserName(context.Context, string) (*models.User, error) { return nil, errStorage }
func (brokenUsers) GetByID(context.Context, string) (*models.User, error)       { return nil, errStorage }

type brokenFolders struct{ folders.Repository }

func (brokenFolders) ListByOwner(context.Context, string) ([]*models.Folder, error) {
	return nil, errStorage
}

// brokenManager fails selected repository calls with errStorage.
type brokenManager struct {
	*repomanager.InMemoryRepositoryManager
}

func (m brokenManager) Users(db dbx.DBTX) users.Repository {
	return brokenUsers{m.InMemoryRepositoryManager.Users(db)}
}

func (m brokenManager) Folders(db dbx.DBTX) folders.Repository {
	return brokenFolders{m.InMemoryRepositoryManager.Folders(db)}
}

// conflictingUsers fails the first *left inserts with a unique violation,
// as a concurrent insert of the same username would.
type conflictingUsers struct {
	users.Repository
	left *int
}

func (r conflictingUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if *r.left > 0 {
		*r.left--
		return nil, fmt.Errorf("%w: username", common.ErrorConflict)
	}
	return r.Repository.Create(ctx, u)
}

type conflictingManager struct {
	*repomanager.InMemoryRepositoryManager
	left *int
}

func (m conflictingManager) Users(db dbx.DBTX) users.Repository {
	return conflictingUsers{m.InMemoryRepositoryManager.Users(db), m.left}
}
