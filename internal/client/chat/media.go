package chat

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned when a file is not in a decodable image
// format.
var ErrUnsupportedImage = errors.New("unsupported image format")

// LoadFile returns the base name and contents of path.
func LoadFile(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(path), data, nil
}

// LoadImage returns the image at path as PNG. PNG sources are passed through
// untouched, other formats are re-encoded and the name gets a .png extension.
func LoadImage(path string) (string, []byte, error) {
	name, data, err := LoadFile(path)
	if err != nil {
		return "", nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", name, ErrUnsupportedImage)
	}
	if format == "png" {
		return name, data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return pngName(name), buf.Bytes(), nil
}

func pngName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}
