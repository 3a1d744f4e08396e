package twin

import "errors"

// ErrInvalidSeed is returned when a seed cannot be decoded or is inconsistent.
var ErrInvalidSeed = errors.New("invalid twin seed")

// Failures reported to callers in the response envelope.
var (
	errUnknownAction     = errors.New("unknown action")
	errUnknownVenue      = errors.New("unknown venue")
	errUnknownPerformer  = errors.New("unknown performer")
	errInvalidToken      = errors.New("invalid or expired token")
	errBadRequest        = errors.New("bad request")
	errNotEnoughFeedback = errors.New("not enough comments for a summary")
)
