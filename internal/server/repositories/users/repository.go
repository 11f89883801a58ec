package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// Repository is the credential store. Lookups of an absent user return
// common.ErrorNotFound; creating a taken username returns
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, userID string) error
}
