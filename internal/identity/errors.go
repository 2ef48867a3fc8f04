package identity

import "errors"

var (
	ErrNotFound        = errors.New("identity: not found")
	ErrAlreadyExists   = errors.New("identity: already exists")
	ErrInvalidInput    = errors.New("identity: invalid input")
	ErrUnauthorized    = errors.New("identity: unauthorized")
	ErrInvalidPassword = errors.New("identity: invalid password")
	ErrInvalidToken    = errors.New("identity: invalid token")
	ErrTokenExpired    = errors.New("identity: token expired")
	ErrInvalidAPIKey   = errors.New("identity: invalid api key")
	ErrInactiveAPIKey  = errors.New("identity: inactive api key")
	ErrUsageExceeded   = errors.New("identity: usage exceeded")
)
