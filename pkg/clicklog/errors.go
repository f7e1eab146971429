package clicklog

import "errors"

var (
	// ErrNilClickEvent indicates a nil click event payload was provided to a publisher.
	ErrNilClickEvent = errors.New("nil click event")

	// ErrInvalidClickEvent indicates a click event without an image.
	ErrInvalidClickEvent = errors.New("click event has no image")
)
