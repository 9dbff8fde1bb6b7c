package models

import "errors"

// Service-level error taxonomy. Handlers map these onto HTTP statuses;
// services wrap them with context via fmt.Errorf("%w: ...").
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)
