package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrQueueFull         = errors.New("submission queue full")
	ErrUnknownPerformer  = errors.New("unknown performer")
	ErrNotEnoughFeedback = errors.New("not enough comments for a summary")
)
