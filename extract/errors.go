package extract

import "errors"

var (
	// ErrUnsupportedType indicates no extractor is registered for the
	// content type.
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrMissingSource indicates the item has no source URL to fetch.
	ErrMissingSource = errors.New("missing source url")

	// ErrFetchFailed indicates the source could not be fetched.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrEmptyContent indicates extraction produced no indexable text.
	ErrEmptyContent = errors.New("no indexable text")
)
