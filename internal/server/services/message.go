package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// HistoryLimit caps how many messages List returns.
const HistoryLimit = 50

type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Record stores one text message sent by the given user.
func (s *MessageService) Record(ctx context.Context, userID, username, text string, at time.Time) error {
	msg := &models.Message{UserID: userID, UserName: username, Data: text, Timestamp: at}
	if _, err := s.repomanager.Messages(s.db).Create(ctx, msg); err != nil {
		return fmt.Errorf("error storing message: %w", err)
	}
	return nil
}

// List returns the newest messages of users whose name starts with
// usernamePrefix.
func (s *MessageService) List(ctx context.Context, usernamePrefix string) ([]models.Message, error) {
	list, err := s.repomanager.Messages(s.db).List(ctx, usernamePrefix, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	return list, nil
}
