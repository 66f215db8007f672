package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates an unusable bucket configuration.
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

	// ErrInvalidTokenCount indicates a non-positive token request.
	ErrInvalidTokenCount = errors.New("ratelimiter: invalid token count")
)
