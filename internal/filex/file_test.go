package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	want := filepath.Join(t.TempDir(), "data", "files")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "notes.txt", want: "notes.txt"},
		{in: "dir/notes.txt", want: "notes.txt"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: "/abs/path/cat.png", want: "cat.png"},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
		{in: "/", wantErr: true},
	}
	for _, tt := range tests {
		got, err := BaseName(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidName, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWriteFile_OverwritesExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := WriteFile(dir, "notes.txt", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), path)

	_, err = WriteFile(dir, "notes.txt", []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteFile_StaysInsideDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := WriteFile(dir, "../escape.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.txt"), path)
}
