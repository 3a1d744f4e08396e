// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/stagerank/internal/session"
)

// SessionHandler handles rater sessions and scout status.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type loginRequest struct {
	Token string `json:"token"`
}

type identityRequest struct {
	Email     string `json:"email"`
	Venue     string `json:"venue"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// HandleSession dispatches /session by method: POST logs in with a token,
// GET reads, PUT changes the rater's name and DELETE logs out.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.login(w, r)
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, err := h.deps.Login(r.Context(), req.Token)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.current(w, r, "api.get_session")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) update(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_session"
	sess, ok := h.current(w, r, op)
	if !ok {
		return
	}
	var req identityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	// Email and venue come from the login token and cannot be changed here.
	if email := strings.TrimSpace(req.Email); email != "" && !strings.EqualFold(email, sess.Email) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errIdentityFixed))
		return
	}
	if venue := strings.TrimSpace(req.Venue); venue != "" && venue != sess.Venue {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errIdentityFixed))
		return
	}
	updated, err := h.deps.UpdateSession(r.Context(), sess.ID,
		orDefault(req.FirstName, sess.FirstName),
		orDefault(req.LastName, sess.LastName),
	)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *SessionHandler) logout(w http.ResponseWriter, r *http.Request) {
	const op = "api.logout"
	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	if err := h.deps.Logout(r.Context(), id); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetScout handles GET /me/scout.
func (h *SessionHandler) HandleGetScout(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scout"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.current(w, r, op)
	if !ok {
		return
	}
	st, err := h.deps.ScoutStatus(r.Context(), sess.Email)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleGetTodaysRatings handles GET /me/ratings.
func (h *SessionHandler) HandleGetTodaysRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_todays_ratings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.current(w, r, op)
	if !ok {
		return
	}
	ratings, err := h.deps.TodaysRatings(r.Context(), sess)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if ratings == nil {
		ratings = map[string]int{}
	}
	writeJSON(w, http.StatusOK, ratings)
}

// HandlePreviewScout handles GET /scout?sp=N.
func (h *SessionHandler) HandlePreviewScout(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview_scout"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sp, err := strconv.Atoi(r.URL.Query().Get("sp"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.PreviewScout(r.Context(), sp))
}

// current resolves the request's session or writes the failure.
func (h *SessionHandler) current(w http.ResponseWriter, r *http.Request, op string) (session.Session, bool) {
	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return session.Session{}, false
	}
	sess, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return session.Session{}, false
	}
	return sess, true
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
