package source

import "errors"

// Sentinel error kinds for source loading.
var (
	// ErrCacheIO is a read or write failure on a cache artifact.
	ErrCacheIO = errors.New("cache io failure")
	// ErrFetch is a failed remote fetch.
	ErrFetch = errors.New("fetch failed")
	// ErrFormat is a source body that does not have the expected shape.
	ErrFormat = errors.New("malformed source")
	// ErrUnknownFormat is a source format this package cannot read.
	ErrUnknownFormat = errors.New("unknown source format")
)
