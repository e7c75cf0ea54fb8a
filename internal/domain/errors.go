package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks payloads rejected by boundary validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyProcessed is returned when a processed trigger is modified again.
	ErrAlreadyProcessed = errors.New("trigger already processed")
)
