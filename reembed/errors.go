package reembed

import "errors"

// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
