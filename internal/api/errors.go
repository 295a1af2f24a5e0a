package api

import "errors"

// Sentinel errors for service operations.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)
