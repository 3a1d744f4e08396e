package model

import "time"

// Rating is a single performer rating inside a submission.
type Rating struct {
	PerformerID string   `json:"id"`
	Name        string   `json:"name"`
	Stars       int      `json:"rating"`
	Tags        []string `json:"feedbackTags,omitempty"`
	Comment     string   `json:"comment,omitempty"`
}

// Coordinates is an optional rater location attached to a submission.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Submission is a batch of ratings sent by one rater for one venue.
type Submission struct {
	ID         string
	RaterEmail string
	FirstName  string
	LastName   string
	Venue      string
	Ratings    []Rating
	Coords     *Coordinates
	ReceivedAt time.Time
}

// SubmissionState is the processing state of a queued submission.
type SubmissionState string

// Submission states.
const (
	SubmissionPending  SubmissionState = "pending"
	SubmissionAccepted SubmissionState = "accepted"
	SubmissionFailed   SubmissionState = "failed"
)

// SubmissionResult records the outcome of forwarding a submission.
type SubmissionResult struct {
	ID           string          `json:"id"`
	State        SubmissionState `json:"state"`
	PointsEarned int             `json:"pointsEarned"`
	Error        string          `json:"error,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
