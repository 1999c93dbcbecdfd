package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/dbx"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/folders"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/users"
	"github.com/google/uuid"
)

// InMemoryRepositoryManager keeps everything in process memory. The DBTX
// handed to the factories is ignored, so transactions are not isolated; it
// exists for tests and local experiments.
type InMemoryRepositoryManager struct {
	store *memStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: &memStore{
		users:   map[string]models.User{},
		folders: map[string]models.Folder{},
		files:   map[string]models.File{},
		order:   map[string]int64{},
		now:     time.Now,
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository     { return memUsers{m.store} }
func (m *InMemoryRepositoryManager) Folders(dbx.DBTX) folders.Repository { return memFolders{m.store} }
func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository     { return memFiles{m.store} }

type memStore struct {
	mu      sync.RWMutex
	seq     int64
	users   map[string]models.User
	folders map[string]models.Folder
	files   map[string]models.File
	order   map[string]int64
	now     func() time.Time
}

// stamp assigns an insertion sequence so listings keep storage order even
// when two rows share a timestamp.
func (s *memStore) stamp(id string) time.Time {
	s.seq++
	s.order[id] = s.seq
	return s.now()
}

func (s *memStore) sortByOrder(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] < s.order[ids[j]] })
}

func containsFold(name, fragment string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(fragment))
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.UserName == user.UserName {
			return nil, fmt.Errorf("%w: username", common.ErrorConflict)
		}
		if user.OIDCProvider != "" && u.OIDCProvider == user.OIDCProvider && u.OIDCID == user.OIDCID {
			return nil, fmt.Errorf("%w: external identity", common.ErrorConflict)
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = r.s.stamp(user.ID)
	r.s.users[user.ID] = *user
	return user, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) GetByUserName(_ context.Context, userName string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.UserName == userName })
}

func (r memUsers) GetByExternalID(_ context.Context, provider, externalID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.OIDCProvider == provider && u.OIDCID == externalID })
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memFolders struct{ s *memStore }

func (r memFolders) Create(_ context.Context, folder *models.Folder) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[folder.OwnerID]; !ok {
		return nil, fmt.Errorf("db error: owner %s does not exist", folder.OwnerID)
	}
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	folder.CreatedAt = r.s.stamp(folder.ID)
	stored := *folder
	stored.Files = nil
	r.s.folders[folder.ID] = stored
	return folder, nil
}

func (r memFolders) GetByIDAndOwner(_ context.Context, id, ownerID string) (*models.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.folders[id]
	if !ok || f.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r memFolders) ListByOwner(_ context.Context, ownerID string) ([]*models.Folder, error) {
	return r.list(func(f models.Folder) bool { return f.OwnerID == ownerID }), nil
}

func (r memFolders) SearchByName(_ context.Context, fragment, ownerID string) ([]*models.Folder, error) {
	return r.list(func(f models.Folder) bool {
		return f.OwnerID == ownerID && containsFold(f.Name, fragment)
	}), nil
}

func (r memFolders) UpdateName(_ context.Context, id, ownerID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.folders[id]
	if !ok || f.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	f.Name = name
	r.s.folders[id] = f
	return nil
}

func (r memFolders) Delete(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.folders[id]
	if !ok || f.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.folders, id)
	for fileID, file := range r.s.files {
		if file.FolderID == id {
			delete(r.s.files, fileID)
		}
	}
	return nil
}

func (r memFolders) list(match func(models.Folder) bool) []*models.Folder {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0)
	for id, f := range r.s.folders {
		if match(f) {
			ids = append(ids, id)
		}
	}
	r.s.sortByOrder(ids)

	result := make([]*models.Folder, 0, len(ids))
	for _, id := range ids {
		f := r.s.folders[id]
		result = append(result, &f)
	}
	return result
}

type memFiles struct{ s *memStore }

func (r memFiles) Create(_ context.Context, file *models.File) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.folders[file.FolderID]; !ok {
		return nil, fmt.Errorf("db error: folder %s does not exist", file.FolderID)
	}
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	file.CreatedAt = r.s.stamp(file.ID)
	r.s.files[file.ID] = *file
	return file, nil
}

func (r memFiles) GetByIDAndOwner(_ context.Context, id, ownerID string) (*models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.files[id]
	if !ok || !r.ownedBy(f, ownerID) {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r memFiles) ListByFolder(_ context.Context, folderID string) ([]*models.File, error) {
	return r.list(func(f models.File) bool { return f.FolderID == folderID }), nil
}

func (r memFiles) SearchByName(_ context.Context, fragment, ownerID string) ([]*models.File, error) {
	return r.list(func(f models.File) bool {
		return r.ownedBy(f, ownerID) && containsFold(f.Name, fragment)
	}), nil
}

func (r memFiles) UpdateName(_ context.Context, id, ownerID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.files[id]
	if !ok || !r.ownedBy(f, ownerID) {
		return common.ErrorNotFound
	}
	f.Name = name
	r.s.files[id] = f
	return nil
}

func (r memFiles) Delete(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.files[id]
	if !ok || !r.ownedBy(f, ownerID) {
		return common.ErrorNotFound
	}
	delete(r.s.files, id)
	return nil
}

// ownedBy must be called with the store lock held.
func (r memFiles) ownedBy(f models.File, ownerID string) bool {
	folder, ok := r.s.folders[f.FolderID]
	return ok && folder.OwnerID == ownerID
}

func (r memFiles) list(match func(models.File) bool) []*models.File {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0)
	for id, f := range r.s.files {
		if match(f) {
			ids = append(ids, id)
		}
	}
	r.s.sortByOrder(ids)

	result := make([]*models.File, 0, len(ids))
	for _, id := range ids {
		f := r.s.files[id]
		result = append(result, &f)
	}
	return result
}
