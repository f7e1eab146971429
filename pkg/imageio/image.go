// Package imageio loads images from disk and lists the image folder.
package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"

	// Registered decoders for the supported extensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrDecode is returned when an image cannot be read or decoded.
var ErrDecode = errors.New("image could not be decoded")

// DecodeError reports a single image that failed to load. It matches
// ErrDecode with errors.Is.
type DecodeError struct {
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding image %s: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Image is a decoded-and-verified image together with its encoded bytes,
// which capability backends send over the wire.
type Image struct {
	ID       string
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Base64 returns the encoded image bytes as standard base64.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL.
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Loader loads images by identifier.
type Loader interface {
	// Load returns the image for id, or a *DecodeError when it cannot be
	// opened or decoded.
	Load(ctx context.Context, id string) (*Image, error)
}

// FileLoader loads images whose identifiers are file paths.
type FileLoader struct{}

var _ Loader = FileLoader{}

// Load implements Loader. The whole image is decoded so truncated or corrupt
// files are rejected here and not by a capability backend.
func (FileLoader) Load(ctx context.Context, id string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(id)
	if err != nil {
		return nil, &DecodeError{ID: id, Err: err}
	}

	return Decode(id, data)
}

// Decode verifies that data holds a supported image and wraps it.
func Decode(id string, data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{ID: id, Err: err}
	}

	bounds := img.Bounds()
	return &Image{
		ID:       id,
		Data:     data,
		MIMEType: "image/" + format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
