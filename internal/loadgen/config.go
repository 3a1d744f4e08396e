// Package loadgen drives a running stagerank server with generated rating
// traffic and checks that the resulting boards add up.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Tokens        []string      // Login tokens, one rater session each
	Workers       int           // Number of concurrent submitters
	RPS           float64       // Request rate limit; 0 means unlimited
	Timeout       time.Duration // HTTP request timeout
	SettleTimeout time.Duration // How long to wait for queued submissions
	PollInterval  time.Duration // Delay between submission status polls
	OutputFile    string        // Where to save the generated submissions
	Verbose       bool          // Log every failure
}

// Submission is one generated POST /ratings body plus the session sending it.
type Submission struct {
	SessionID    string   `json:"-"`
	Venue        string   `json:"venue"`
	SubmissionID string   `json:"submission_id"`
	Ratings      []Rating `json:"ratings"`
}

// Rating is a single generated rating.
type Rating struct {
	PerformerID string   `json:"performer_id"`
	Name        string   `json:"name"`
	Stars       int      `json:"stars"`
	Tags        []string `json:"tags,omitempty"`
	Comment     string   `json:"comment,omitempty"`
}

// Entry is the part of a leaderboard row the verifier checks.
type Entry struct {
	Rank          int     `json:"rank"`
	Tier          string  `json:"tier"`
	PerformerID   string  `json:"performer_id"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// AckResponse is the answer to a submission.
type AckResponse struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Points    int    `json:"points_earned"`
	Error     string `json:"error"`
	Duplicate bool   `json:"duplicate"`
}

type session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Venue string `json:"venue"`
}

type card struct {
	PerformerID string `json:"performer_id"`
	Name        string `json:"name"`
	Today       *struct {
		RatingCount int `json:"rating_count"`
	} `json:"today"`
}

type tags struct {
	Positive     []string `json:"positive"`
	Constructive []string `json:"constructive"`
}

// Stats holds run statistics.
type Stats struct {
	Sessions       int
	Submissions    int
	RatingsSent    int
	Queued         int
	Duplicate      int
	Rejected       int
	Accepted       int
	Failed         int
	Unsettled      int
	PointsEarned   int
	VenuesVerified int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
