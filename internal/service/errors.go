package service

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadToken           = errors.New("malformed refresh token")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrInvalidToken       = errors.New("invalid access token")
	ErrUnauthorized       = errors.New("unauthorized")
)
