package output

import "errors"

// Sentinel error kinds for result writers.
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrWrite             = errors.New("write failed")
)
