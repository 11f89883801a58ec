package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresFactories_ReturnConcreteRepos(t *testing.T) {
	db := newDB(t)
	var m RepositoryManager = NewPostgresRepositoryManager()

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &messages.PostgresRepository{}, m.Messages(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}

func TestMemoryManager_SharesState(t *testing.T) {
	var m RepositoryManager = NewMemoryRepositoryManager()
	require.NoError(t, m.RunMigrations(context.Background(), nil))

	assert.Same(t, m.Users(nil), m.Users(nil))
	assert.Same(t, m.Messages(nil), m.Messages(nil))
	assert.IsType(t, &users.MemoryRepository{}, m.Users(nil))
}
