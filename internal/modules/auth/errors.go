package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password — callers must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidRefreshToken covers not-found, revoked and expired
	// refresh tokens.
	ErrInvalidRefreshToken = errors.New("refresh token invalid or expired")

	// ErrRefreshTokenReused means an already-rotated token was presented
	// again. By the time the service returns this error the whole
	// rotation family has been revoked.
	ErrRefreshTokenReused = errors.New("refresh token reuse detected")
)
