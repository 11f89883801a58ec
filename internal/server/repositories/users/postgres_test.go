package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock, db
}

const insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*password_hash,\s*salt,\s*last_login\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), "alice", []byte("hash"), []byte("salt"), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{UserName: "alice", PasswordHash: []byte("hash"), Salt: []byte("salt"), LastLogin: created}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_KeepsProvidedID(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("fixed-id", "alice", []byte("h"), []byte("s"), nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	got, err := repo.Create(context.Background(), &models.User{ID: "fixed-id", UserName: "alice", PasswordHash: []byte("h"), Salt: []byte("s")})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const selectQuery = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*salt,\s*created_at,\s*last_login\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	last := created.Add(time.Hour)

	mock.ExpectQuery(selectQuery).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "salt", "created_at", "last_login"}).
			AddRow("u-1", "alice", []byte("hash"), []byte("salt"), created, last))

	u, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{
		ID: "u-1", UserName: "alice", PasswordHash: []byte("hash"), Salt: []byte("salt"),
		CreatedAt: created, LastLogin: last,
	}, u)
}

func TestGetUserByLogin_NullLastLogin(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "salt", "created_at", "last_login"}).
			AddRow("u-1", "alice", []byte("hash"), []byte("salt"), time.Now(), nil))

	u, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, u.LastLogin.IsZero())
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetUserByLogin_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).WithArgs("alice").WillReturnError(errors.New("conn refused"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "db error")
}

const touchQuery = `(?s)^UPDATE\s+users\s+SET\s+last_login\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`

func TestTouchLastLogin(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectExec(touchQuery).WithArgs("u-1", at).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.TouchLastLogin(context.Background(), "u-1", at))

	mock.ExpectExec(touchQuery).WithArgs("u-2", at).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.TouchLastLogin(context.Background(), "u-2", at), common.ErrorNotFound)

	mock.ExpectExec(touchQuery).WithArgs("u-3", at).WillReturnError(errors.New("boom"))
	assert.ErrorContains(t, repo.TouchLastLogin(context.Background(), "u-3", at), "db error")
}

const listQuery = `(?s)^SELECT\s+id,\s*username,\s*created_at,\s*last_login\s+FROM\s+users\s+ORDER\s+BY\s+username\s*$`

func TestList(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "last_login"}).
			AddRow("1", "alice", ts, ts).
			AddRow("2", "bob", ts, nil))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].UserName)
	assert.Equal(t, ts, got[0].LastLogin)
	assert.True(t, got[1].LastLogin.IsZero())
	assert.Nil(t, got[0].PasswordHash)
}

func TestList_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQuery).WillReturnError(errors.New("boom"))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "db error")
}

func TestList_RowError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "last_login"}).
			AddRow("1", "alice", time.Now(), nil).
			RowError(0, errors.New("row broke")))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "row broke")
}

const deleteQuery = `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`

func TestDelete(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(deleteQuery).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "u-1"))

	mock.ExpectExec(deleteQuery).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), common.ErrorNotFound)

	mock.ExpectExec(deleteQuery).WithArgs("u-9").WillReturnError(errors.New("boom"))
	assert.ErrorContains(t, repo.Delete(context.Background(), "u-9"), "db error")
}
