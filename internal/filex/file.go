// Package filex contains the file helpers the client uses to store received
// attachments.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidName is returned when a carried file name has no usable base name.
var ErrInvalidName = errors.New("invalid file name")

// EnsureDir creates dir (and parents) if it does not exist and returns its
// absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// BaseName strips any directory components from a name received from the
// network so it cannot escape the output directory.
func BaseName(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filepath.FromSlash(name)))
	if base == "/" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", ErrInvalidName
	}
	return base, nil
}

// WriteFile stores data as dir/BaseName(name), replacing any existing file,
// and returns the written path.
func WriteFile(dir, name string, data []byte) (string, error) {
	base, err := BaseName(name)
	if err != nil {
		return "", fmt.Errorf("%q: %w", name, err)
	}
	abs, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, base)
	if err := os.WriteFile(path, data, 0o660); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
