package domain

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict is returned when a unique key (user email) is already taken.
	ErrConflict = errors.New("conflict")
)
