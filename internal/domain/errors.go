package domain

import "errors"

// Domain errors shared across entities
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternalError      = errors.New("internal error")
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooLong        = errors.New("name exceeds maximum length")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Validation constants
const (
	MaxNameLength = 200
)
