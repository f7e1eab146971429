package testutils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// PNG returns the bytes of a small solid-color PNG.
func PNG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WriteImage writes a valid PNG named name into dir and returns its path.
func WriteImage(dir, name string) string {
	return writeFile(dir, name, PNG(color.RGBA{R: 200, G: 100, B: 50, A: 255}))
}

// WriteCorruptImage writes a file with an image extension that cannot be
// decoded and returns its path.
func WriteCorruptImage(dir, name string) string {
	return writeFile(dir, name, []byte("definitely not an image"))
}

func writeFile(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		panic(err)
	}
	return path
}
