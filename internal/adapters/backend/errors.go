package backend

import (
	"errors"
	"fmt"
)

// Sentinel kinds for backend errors.
var (
	// ErrPermission means the backend answered with an HTML error page,
	// which happens when the deployment is not publicly executable.
	ErrPermission = errors.New("backend permission denied")
	// ErrMalformed means a success response lacked its payload key.
	ErrMalformed = errors.New("malformed backend response")
	// ErrEmptySummary means the backend produced no feedback summary.
	ErrEmptySummary = errors.New("empty feedback summary")
	// ErrUnavailable wraps transport failures and non-2xx statuses.
	ErrUnavailable = errors.New("backend unavailable")
)

// RemoteError is a failure reported by the backend itself.
type RemoteError struct {
	Action  string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s: status %d: %s", e.Action, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %s", e.Action, e.Message)
}
