package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
	ErrInvalid  = errors.New("invalid session")
)
