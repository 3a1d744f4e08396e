package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
)

const (
	minStars         = 1
	maxStars         = 5
	maxCommentLength = 1000
	maxTagsPerRating = 10
)

// Ack is the answer to a rating submission.
type Ack struct {
	model.SubmissionResult
	Duplicate bool `json:"duplicate"`
}

// SubmitRatings validates a submission and queues it for forwarding to the
// backend. A submission id seen before is acknowledged as a duplicate with
// its last known result. ErrQueueFull reports backpressure.
func (s *Service) SubmitRatings(ctx context.Context, sub model.Submission) (Ack, error) {
	// Held until the enqueue so Stop cannot swap or drain the queue under us.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Ack{}, ErrNotStarted
	}

	sub, err := normalizeSubmission(sub)
	if err != nil {
		metrics.RecordSubmission("invalid")
		return Ack{}, err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.ReceivedAt = s.now()

	if s.deduper.SeenAndRecord(ctx, sub.ID) {
		metrics.RecordSubmission("duplicate")
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", sub.ID))
		res, ok := s.results.Get(ctx, sub.ID)
		if !ok {
			res = model.SubmissionResult{ID: sub.ID, State: model.SubmissionPending, UpdatedAt: sub.ReceivedAt}
		}
		return Ack{SubmissionResult: res, Duplicate: true}, nil
	}

	pending := model.SubmissionResult{ID: sub.ID, State: model.SubmissionPending, UpdatedAt: sub.ReceivedAt}
	s.results.Record(ctx, pending)
	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, sub.ID)
		s.results.Forget(ctx, sub.ID)
		metrics.RecordSubmission("rejected")
		return Ack{}, ErrQueueFull
	}
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	s.logger.Debug(ctx, "submission queued",
		logger.String("submission_id", sub.ID),
		logger.String("venue", sub.Venue),
		logger.Int("ratings", len(sub.Ratings)),
	)
	return Ack{SubmissionResult: pending}, nil
}

// Submission returns the last known result of a submission.
func (s *Service) Submission(ctx context.Context, id string) (model.SubmissionResult, bool) {
	return s.results.Get(ctx, id)
}

// normalizeSubmission trims a submission and checks every rating in it.
func normalizeSubmission(sub model.Submission) (model.Submission, error) {
	sub.ID = strings.TrimSpace(sub.ID)
	sub.RaterEmail = strings.TrimSpace(sub.RaterEmail)
	sub.Venue = strings.TrimSpace(sub.Venue)
	sub.FirstName = strings.TrimSpace(sub.FirstName)
	sub.LastName = strings.TrimSpace(sub.LastName)

	switch {
	case sub.RaterEmail == "":
		return sub, fmt.Errorf("%w: missing rater email", ErrInvalidSubmission)
	case sub.Venue == "":
		return sub, fmt.Errorf("%w: missing venue", ErrInvalidSubmission)
	case len(sub.Ratings) == 0:
		return sub, fmt.Errorf("%w: no ratings", ErrInvalidSubmission)
	}
	if c := sub.Coords; c != nil {
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return sub, fmt.Errorf("%w: coordinates out of range", ErrInvalidSubmission)
		}
	}

	seen := make(map[string]struct{}, len(sub.Ratings))
	ratings := make([]model.Rating, len(sub.Ratings))
	for i, r := range sub.Ratings {
		r.PerformerID = strings.TrimSpace(r.PerformerID)
		r.Comment = strings.TrimSpace(r.Comment)
		switch {
		case r.PerformerID == "":
			return sub, fmt.Errorf("%w: rating %d has no performer id", ErrInvalidSubmission, i)
		case r.Stars < minStars || r.Stars > maxStars:
			return sub, fmt.Errorf("%w: rating for %q must be %d-%d stars", ErrInvalidSubmission, r.PerformerID, minStars, maxStars)
		case utf8.RuneCountInString(r.Comment) > maxCommentLength:
			return sub, fmt.Errorf("%w: comment for %q is too long", ErrInvalidSubmission, r.PerformerID)
		case len(r.Tags) > maxTagsPerRating:
			return sub, fmt.Errorf("%w: too many tags for %q", ErrInvalidSubmission, r.PerformerID)
		}
		if _, dup := seen[r.PerformerID]; dup {
			return sub, fmt.Errorf("%w: %q rated twice", ErrInvalidSubmission, r.PerformerID)
		}
		seen[r.PerformerID] = struct{}{}
		ratings[i] = r
	}
	sub.Ratings = ratings
	return sub, nil
}
