package auth

import "errors"

var (
	ErrMissingSigningKey       = errors.New("auth: missing signing key")
	ErrMissingToken            = errors.New("auth: missing token")
	ErrInvalidToken            = errors.New("auth: invalid token")
	ErrExpiredToken            = errors.New("auth: token is expired")
	ErrUnexpectedSigningMethod = errors.New("auth: unexpected signing method")
	ErrMissingSubject          = errors.New("auth: token has no subject")
)
