package chat

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, name string, encode func(io.Writer, image.Image) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, testImage()))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestLoadImage_PNGPassesThrough(t *testing.T) {
	path := writeImage(t, "pic.png", png.Encode)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	name, data, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "pic.png", name)
	assert.Equal(t, raw, data)
}

func TestLoadImage_ConvertsToPNG(t *testing.T) {
	tests := []struct {
		file   string
		encode func(io.Writer, image.Image) error
		want   string
	}{
		{"photo.jpg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, "photo.png"},
		{"anim.gif", func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }, "anim.png"},
		{"old.bmp", bmp.Encode, "old.png"},
		{"scan.tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, "scan.png"},
		{"noext", bmp.Encode, "noext.png"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			name, data, err := LoadImage(writeImage(t, tt.file, tt.encode))
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)

			img, format, err := image.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
		})
	}
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("not an image"), 0o600))

	_, _, err := LoadImage(text)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2}, 0o600))

	name, data, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.bin", name)
	assert.Equal(t, []byte{0, 1, 2}, data)
}
