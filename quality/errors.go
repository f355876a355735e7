package quality

import "errors"

var (
	// ErrFetchFailed indicates the image could not be retrieved over HTTP.
	ErrFetchFailed = errors.New("image fetch failed")

	// ErrInvalidImage indicates the fetched bytes could not be decoded as
	// a supported image format.
	ErrInvalidImage = errors.New("invalid image format")
)
