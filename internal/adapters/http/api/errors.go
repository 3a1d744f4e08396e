package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrUnauthorized  = errors.New("missing or unknown session")
	ErrNotFound      = errors.New("not found")
	ErrLimitExceeded = errors.New("limit exceeded")
)

var errIdentityFixed = errors.New("email and venue are fixed by the login token")

// opError attaches the failing operation and an error kind to a cause.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	case e.kind == nil:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	}
}

func (e *opError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind annotates err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}
