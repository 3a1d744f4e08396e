// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/okian/stagerank/internal/domain/model"
)

// RatingsHandler accepts rating submissions and reports their progress.
type RatingsHandler struct {
	deps RatingDependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps RatingDependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// ratingsRequest is the body of POST /ratings. The rater comes from the
// session; venue defaults to the session's venue.
type ratingsRequest struct {
	SubmissionID string          `json:"submission_id"`
	Venue        string          `json:"venue"`
	Ratings      []ratingRequest `json:"ratings"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
}

type ratingRequest struct {
	PerformerID string   `json:"performer_id"`
	Name        string   `json:"name"`
	Stars       int      `json:"stars"`
	Tags        []string `json:"tags,omitempty"`
	Comment     string   `json:"comment,omitempty"`
}

type ackResponse struct {
	ID        string                `json:"id"`
	State     model.SubmissionState `json:"state"`
	Points    int                   `json:"points_earned"`
	Error     string                `json:"error,omitempty"`
	Duplicate bool                  `json:"duplicate"`
}

// HandlePostRatings handles POST /ratings.
func (h *RatingsHandler) HandlePostRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_ratings"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	sess, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	var req ratingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	sub := model.Submission{
		ID:         req.SubmissionID,
		RaterEmail: sess.Email,
		FirstName:  sess.FirstName,
		LastName:   sess.LastName,
		Venue:      sess.Venue,
		Ratings:    make([]model.Rating, 0, len(req.Ratings)),
	}
	if v := strings.TrimSpace(req.Venue); v != "" && v != sess.Venue {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errIdentityFixed))
		return
	}
	if req.Latitude != nil {
		sub.Coords = &model.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	for _, rr := range req.Ratings {
		sub.Ratings = append(sub.Ratings, model.Rating{
			PerformerID: rr.PerformerID,
			Name:        rr.Name,
			Stars:       rr.Stars,
			Tags:        rr.Tags,
			Comment:     rr.Comment,
		})
	}

	ack, err := h.deps.SubmitRatings(r.Context(), sub)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	status := http.StatusAccepted
	if ack.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ackResponse{
		ID:        ack.ID,
		State:     ack.State,
		Points:    ack.PointsEarned,
		Error:     ack.Error,
		Duplicate: ack.Duplicate,
	})
}

// HandleGetSubmission handles GET /ratings/{id}.
func (h *RatingsHandler) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_submission"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/ratings/"))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	res, ok := h.deps.Submission(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{
		ID:     res.ID,
		State:  res.State,
		Points: res.PointsEarned,
		Error:  res.Error,
	})
}
