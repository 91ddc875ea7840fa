package ratelimiter

import "errors"

var (
	// ErrInvalidLimit is returned when the configured limit is not positive.
	ErrInvalidLimit = errors.New("ratelimiter: limit must be positive")

	// ErrInvalidWindow is returned when the configured window is not positive.
	ErrInvalidWindow = errors.New("ratelimiter: window must be positive")
)
