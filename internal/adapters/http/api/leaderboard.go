// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/stagerank/internal/domain/model"
)

// LeaderboardHandler handles board, roster and catalog reads.
type LeaderboardHandler struct {
	deps     BoardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps BoardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?venue=V&scope=S&limit=N.
// Scope defaults to today and a missing limit means the configured maximum.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	venue := strings.TrimSpace(q.Get("venue"))
	if venue == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	scope, err := model.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	n := 0
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if h.maxLimit > 0 && n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitExceeded))
			return
		}
	}
	entries, err := h.deps.Leaderboard(r.Context(), venue, scope, n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetPerformers handles GET /performers?venue=V.
func (h *LeaderboardHandler) HandleGetPerformers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_performers"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	venue := strings.TrimSpace(r.URL.Query().Get("venue"))
	if venue == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	cards, err := h.deps.Performers(r.Context(), venue)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

type summaryResponse struct {
	PerformerID string      `json:"performer_id"`
	Scope       model.Scope `json:"scope"`
	Summary     string      `json:"summary"`
}

// HandleGetSummary handles GET /summary?venue=V&performer=P&scope=S.
func (h *LeaderboardHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	scope, err := model.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	performer := strings.TrimSpace(q.Get("performer"))
	summary, err := h.deps.FeedbackSummary(r.Context(), q.Get("venue"), performer, scope)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{PerformerID: performer, Scope: scope, Summary: summary})
}

// HandleGetVenues handles GET /venues.
func (h *LeaderboardHandler) HandleGetVenues(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_venues"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	venues, err := h.deps.Venues(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if venues == nil {
		venues = []string{}
	}
	writeJSON(w, http.StatusOK, venues)
}

// HandleGetTags handles GET /tags.
func (h *LeaderboardHandler) HandleGetTags(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_tags"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tags, err := h.deps.Tags(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
