package sources

import "errors"

var (
	// ErrNilFetcher is returned when a nil fetcher is registered.
	ErrNilFetcher = errors.New("fetcher is nil")

	// ErrEmptyName is returned when a fetcher has no name.
	ErrEmptyName = errors.New("fetcher name cannot be empty")

	// ErrDuplicateSource is returned when two fetchers share a name.
	ErrDuplicateSource = errors.New("duplicate source")

	// ErrUnknownSource is returned when selecting a source that is not registered.
	ErrUnknownSource = errors.New("unknown source")
)
