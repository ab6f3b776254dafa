package v1

import "errors"

// Common API errors.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("resource already exists")
	ErrRateLimited    = errors.New("too many requests")
	ErrTimeout        = errors.New("operation timed out")
)
