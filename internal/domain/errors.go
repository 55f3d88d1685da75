package domain

import "github.com/cockroachdb/errors"

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrValidationFailed     = errors.New("ticket type validation failed")
	ErrInvalidTransition    = errors.New("invalid status transition")
)
