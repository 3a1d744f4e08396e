// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/stagerank/internal/adapters/backend"
	service "github.com/okian/stagerank/internal/app"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/scout"
	"github.com/okian/stagerank/internal/domain/types"
	"github.com/okian/stagerank/internal/session"
)

// SessionHeader carries the session id on authenticated requests.
const SessionHeader = "X-Session-ID"

// Dependencies required by HTTP handlers.
type Dependencies interface {
	BoardDependencies
	RatingDependencies
	SessionDependencies
}

// BoardDependencies serve the read side of the API.
type BoardDependencies interface {
	Leaderboard(ctx context.Context, venue string, scope model.Scope, limit int) ([]types.Entry, error)
	Performers(ctx context.Context, venue string) ([]types.Card, error)
	FeedbackSummary(ctx context.Context, venue, performerID string, scope model.Scope) (string, error)
	Venues(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) (model.FeedbackTags, error)
}

// RatingDependencies accept and track rating submissions.
type RatingDependencies interface {
	SubmitRatings(ctx context.Context, sub model.Submission) (service.Ack, error)
	Submission(ctx context.Context, id string) (model.SubmissionResult, bool)
	Session(ctx context.Context, id string) (session.Session, error)
}

// SessionDependencies manage rater sessions and scout status.
type SessionDependencies interface {
	Login(ctx context.Context, token string) (session.Session, error)
	Session(ctx context.Context, id string) (session.Session, error)
	UpdateSession(ctx context.Context, id, firstName, lastName string) (session.Session, error)
	Logout(ctx context.Context, id string) error
	ScoutStatus(ctx context.Context, raterEmail string) (service.RaterStatus, error)
	PreviewScout(ctx context.Context, sp int) scout.Status
	TodaysRatings(ctx context.Context, sess session.Session) (map[string]int, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	ratingsHandler     *RatingsHandler
	sessionHandler     *SessionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		ratingsHandler:     NewRatingsHandler(deps),
		sessionHandler:     NewSessionHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)

	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/performers", MetricsMiddleware(s.leaderboardHandler.HandleGetPerformers, "performers"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.leaderboardHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/venues", MetricsMiddleware(s.leaderboardHandler.HandleGetVenues, "venues"))
	mux.HandleFunc("/tags", MetricsMiddleware(s.leaderboardHandler.HandleGetTags, "tags"))

	mux.HandleFunc("/ratings", MetricsMiddleware(s.ratingsHandler.HandlePostRatings, "ratings"))
	mux.HandleFunc("/ratings/", MetricsMiddleware(s.ratingsHandler.HandleGetSubmission, "submission"))

	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleSession, "session"))
	mux.HandleFunc("/me/scout", MetricsMiddleware(s.sessionHandler.HandleGetScout, "me_scout"))
	mux.HandleFunc("/me/ratings", MetricsMiddleware(s.sessionHandler.HandleGetTodaysRatings, "me_ratings"))
	mux.HandleFunc("/scout", MetricsMiddleware(s.sessionHandler.HandlePreviewScout, "scout"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service, session or backend error to a response.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

func classify(err error) (int, string) {
	var remote *backend.RemoteError
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, session.ErrInvalid),
		errors.Is(err, model.ErrUnknownScope):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, service.ErrUnknownPerformer):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotEnoughFeedback),
		errors.Is(err, backend.ErrEmptySummary):
		return http.StatusConflict, "not_enough_feedback"
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, backend.ErrPermission):
		return http.StatusBadGateway, "backend_permission"
	case errors.As(err, &remote):
		return http.StatusBadGateway, "backend_error"
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrMalformed):
		return http.StatusBadGateway, "backend_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// sessionID reads the session id from the request header.
func sessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
