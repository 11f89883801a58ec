package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	b, err := fs.ReadFile(Migrations, "00001_init.sql")
	require.NoError(t, err)
	sql := string(b)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "-- +goose Down")
	assert.Contains(t, sql, "username      TEXT NOT NULL UNIQUE")
	assert.Contains(t, sql, "ON DELETE CASCADE")
}
