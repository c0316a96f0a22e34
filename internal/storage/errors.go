package storage

import "errors"

// Common storage errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid transaction status")
	ErrInvalidCursor = errors.New("invalid cursor")
)
