package ingest

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ingestion errors.
var (
	ErrInvalidRecord = errors.New("invalid performer record")
	ErrInvalidLevels = errors.New("invalid scout level table")
)

// ValidationError describes the first invariant a raw record violated.
type ValidationError struct {
	ID     string // performer id, may be empty when the id itself is invalid
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("performer %s: %s: %s", e.ID, e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidRecord).
func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// ConfigurationError reports a malformed scout level table.
type ConfigurationError struct {
	Index  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scout level %d: %s", e.Index, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidLevels).
func (e *ConfigurationError) Unwrap() error { return ErrInvalidLevels }
