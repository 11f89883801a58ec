package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	query :=
		`INSERT INTO messages (id, user_id, data, timestamp)
		 VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query, msg.ID, msg.UserID, msg.Data, msg.Timestamp); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *PostgresRepository) List(ctx context.Context, usernamePrefix string, limit int) ([]models.Message, error) {
	query :=
		`SELECT m.id, m.user_id, u.username, m.data, m.timestamp
		 FROM messages m
		 JOIN users u ON u.id = m.user_id
		 WHERE u.username LIKE $1 ESCAPE '\'
		 ORDER BY m.timestamp DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, likePrefix(usernamePrefix), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.UserName, &m.Data, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
