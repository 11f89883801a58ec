// Package services contains server-side business logic. UserService is the
// credential check behind the login handshake and the user side of the
// dashboard API; MessageService keeps the text history.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/cryptox"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// Authentication is the outcome of a successful Authenticate call.
type Authentication struct {
	User *models.User
	// Registered is true when the user did not exist and was created.
	Registered bool
}

// UserService verifies or registers users. db may be nil when the manager
// serves in-memory repositories.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m, now: time.Now}
}

// Authenticate registers username with password if it is unknown, otherwise
// checks password against the stored hash. A wrong password (or an empty
// username) yields common.ErrorUnauthorized; any storage failure yields
// common.ErrCredentialStoreUnavailable.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*Authentication, error) {
	if username == "" {
		return nil, common.ErrorUnauthorized
	}
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByLogin(ctx, username)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		created, err := s.register(ctx, username, password)
		if err == nil {
			return &Authentication{User: created, Registered: true}, nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) {
			return nil, unavailable(err)
		}
		// someone registered the same name between lookup and insert
		if user, err = repo.GetUserByLogin(ctx, username); err != nil {
			return nil, unavailable(err)
		}
	case err != nil:
		return nil, unavailable(err)
	}

	if !cryptox.VerifyPassword([]byte(password), user.Salt, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	now := s.now().UTC()
	if err := repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, unavailable(err)
	}
	user.LastLogin = now
	return &Authentication{User: user}, nil
}

func (s *UserService) register(ctx context.Context, username, password string) (*models.User, error) {
	salt := cryptox.NewSalt()
	user := &models.User{
		UserName:     username,
		Salt:         salt,
		PasswordHash: cryptox.HashPassword([]byte(password), salt),
		LastLogin:    s.now().UTC(),
	}
	return s.repomanager.Users(s.db).Create(ctx, user)
}

// ListUsers returns every user without credential material.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// DeleteUser removes a user together with their message history.
// An unknown id yields common.ErrorNotFound.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	del := func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Messages(tx).DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error deleting messages: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	}
	if s.db == nil {
		return del(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, del)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", common.ErrCredentialStoreUnavailable, err)
}
