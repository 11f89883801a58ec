// Package messages stores the text history shown by the dashboard API.
package messages

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// List returns at most limit messages whose author name starts with
	// usernamePrefix, newest first. An empty prefix matches everyone.
	List(ctx context.Context, usernamePrefix string, limit int) ([]models.Message, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
