package pixelsort

import "errors"

var (
	// ErrInvalidThreshold reports a threshold or mask bound outside the
	// key's value domain.
	ErrInvalidThreshold = errors.New("pixelsort: invalid threshold")
	// ErrUnsupportedFormat reports input that cannot be decoded into a
	// pixel grid.
	ErrUnsupportedFormat = errors.New("pixelsort: unsupported image format")
)
