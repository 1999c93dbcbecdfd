// Package services contains the business rules of the drive: account
// registration and login, and the owner scoped folder and file stores.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/dmitrijs2005/textdrive/internal/dbx"
	"github.com/dmitrijs2005/textdrive/internal/server/auth"
	"github.com/dmitrijs2005/textdrive/internal/server/models"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/users"
)

const (
	minUserNameLength = 5
	minPasswordLength = 5

	provisionAttempts  = 3
	numberedCandidates = 20
)

// UserService registers users, checks their credentials and turns bearer
// tokens back into users.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService) *UserService {
	return &UserService{db: db, repomanager: m, tokens: tokens}
}

// Register creates an ordinary user. Username and password must each have
// at least five characters once surrounding blanks are ignored; usernames
// are unique and compared case-sensitively.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	if err := checkCredentialShape("username", userName, minUserNameLength); err != nil {
		return nil, err
	}
	if err := checkNameLength("username", userName); err != nil {
		return nil, err
	}
	if err := checkCredentialShape("password", password, minPasswordLength); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUserName(ctx, userName)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: username %q is taken", common.ErrorConflict, userName)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storageErr("lookup user", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	u, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash, Role: models.RoleUser})
	if err != nil {
		return nil, storageErr("create user", err)
	}
	return u, nil
}

// Login checks the credentials and issues a bearer token. Unknown users and
// wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, *models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return "", nil, storageErr("lookup user", err)
		}
		// keep the timing of unknown users close to that of known ones
		auth.CheckPassword(s.dummyPasswordHash(), password)
		return "", nil, fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
	}

	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, user, nil
}

// FindByID returns nil without an error when the user does not exist.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.optional(s.repomanager.Users(s.db).GetByID(ctx, id))
}

func (s *UserService) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.optional(s.repomanager.Users(s.db).GetByUserName(ctx, userName))
}

func (s *UserService) FindByExternalIdentity(ctx context.Context, provider, externalID string) (*models.User, error) {
	return s.optional(s.repomanager.Users(s.db).GetByExternalID(ctx, provider, externalID))
}

// ResolvePrincipal validates token and loads the user it names. Both a bad
// token and a user that no longer exists yield common.ErrorUnauthorized.
func (s *UserService) ResolvePrincipal(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user no longer exists", common.ErrorUnauthorized)
	}
	return user, nil
}

// LoginExternal signs in a user vouched for by an external identity
// provider, creating and linking a local account on the first visit. The
// account is keyed on (provider, provider id). If the preferred username is
// taken by someone else the provider name is appended to it, then a counter.
func (s *UserService) LoginExternal(ctx context.Context, ident models.ExternalIdentity) (string, *models.User, error) {
	if blank(ident.Provider) || blank(ident.ID) {
		return "", nil, invalid("external identity without provider or id")
	}
	if blank(ident.PreferredUserName()) {
		return "", nil, invalid("external identity without login or email")
	}

	var (
		user *models.User
		err  error
	)
	// A concurrent sign-in can claim the chosen name or the identity between
	// lookup and insert; the next attempt sees it.
	for attempt := 0; attempt < provisionAttempts; attempt++ {
		user, err = s.provisionExternal(ctx, ident)
		if !errors.Is(err, common.ErrorConflict) {
			break
		}
	}
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, user, nil
}

func (s *UserService) provisionExternal(ctx context.Context, ident models.ExternalIdentity) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByExternalID(ctx, ident.Provider, ident.ID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return storageErr("lookup external identity", err)
		}

		name, err := freeUserName(ctx, repo, ident.PreferredUserName(), ident.Provider)
		if err != nil {
			return err
		}

		secret, err := common.MakeRandHexString(32)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		hash, err := auth.HashPassword(secret)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}

		user, err = repo.Create(ctx, &models.User{
			UserName:     name,
			PasswordHash: hash,
			Role:         models.RoleUser,
			OIDCProvider: ident.Provider,
			OIDCID:       ident.ID,
		})
		if err != nil {
			return storageErr("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// freeUserName returns the first unused name among base, base@provider,
// base@provider-2, base@provider-3 and so on. After numberedCandidates tries
// it falls back to a random suffix. Candidates are cut to maxNameLength.
func freeUserName(ctx context.Context, repo users.Repository, base, provider string) (string, error) {
	for n := 0; n < numberedCandidates; n++ {
		var suffix string
		switch n {
		case 0:
		case 1:
			suffix = "@" + provider
		default:
			suffix = fmt.Sprintf("@%s-%d", provider, n)
		}

		candidate := withSuffix(base, suffix)
		_, err := repo.GetByUserName(ctx, candidate)
		if errors.Is(err, common.ErrorNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", storageErr("lookup user", err)
		}
	}

	tail, err := common.MakeRandHexString(4)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return withSuffix(base, "@"+provider+"-"+tail), nil
}

func withSuffix(base, suffix string) string {
	room := maxNameLength - utf8.RuneCountInString(suffix)
	if room < 0 {
		room = 0
	}
	if r := []rune(base); len(r) > room {
		base = string(r[:room])
	}
	return base + suffix
}

// EnsureSystemUser creates the administrator account unless a user with
// that name already exists. The bool reports whether it was created.
func (s *UserService) EnsureSystemUser(ctx context.Context, userName, password string) (*models.User, bool, error) {
	repo := s.repomanager.Users(s.db)

	existing, err := repo.GetByUserName(ctx, userName)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, storageErr("lookup system user", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	u, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash, Role: models.RoleAdmin})
	if err != nil {
		return nil, false, storageErr("create system user", err)
	}
	return u, true, nil
}

func (s *UserService) optional(u *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, storageErr("lookup user", err)
	}
	return u, nil
}

func (s *UserService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("textdrive-no-such-user")
	})
	return s.dummyHash
}

func checkCredentialShape(field, value string, minLen int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return invalid("%s must not be blank", field)
	}
	if utf8.RuneCountInString(trimmed) < minLen {
		return invalid("%s must be at least %d characters", field, minLen)
	}
	return nil
}
