// Package twin is an in-memory stand-in for the ratings backend. It speaks the
// same action protocol as the real endpoint and is used by tests and by the
// "stagerank twin" command for local development.
package twin

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/stagerank/internal/adapters/backend"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/scoring"
	"github.com/okian/stagerank/pkg/logger"
)

const (
	maxRequestSize  = 1 << 20
	defaultWeekDays = 7
)

type tally struct {
	sum      float64
	count    int
	comments int
}

func (t tally) average() float64 {
	if t.count == 0 {
		return 0
	}
	return math.Round(t.sum/float64(t.count)*100) / 100
}

type performer struct {
	model.Performer
	venue string

	allTime, today         tally
	allTimeTags, todayTags map[string]int

	// All-time average before the most recent rating was folded in.
	prevAverage float64
	hasPrev     bool

	// XP captured at the start of the current night.
	dayStartXP int
	// XP at the start of each of the last weekDays nights, oldest first.
	xpMarks []int
}

// Twin holds the whole backend state behind one mutex.
type Twin struct {
	mu       sync.Mutex
	now      func() time.Time
	loc      *time.Location
	weekDays int
	log      logger.Logger
	scorer   *scoring.Scorer

	seed       Seed
	day        string
	venues     []string
	roster     map[string][]string
	performers map[string]*performer
	raters     map[string]*model.RaterProfile
	tonight    map[string]map[string]int
	accepted   map[string]int
}

// New builds a twin from seed.
func New(seed Seed, opts ...Option) *Twin {
	t := &Twin{
		now:      time.Now,
		loc:      time.UTC,
		weekDays: defaultWeekDays,
		log:      logger.NewNop(),
		scorer:   scoring.New(),
		seed:     seed,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Reset()
	return t
}

// Reset discards every submission and restores the seed state.
func (t *Twin) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.venues = nil
	t.roster = map[string][]string{}
	t.performers = map[string]*performer{}
	t.raters = map[string]*model.RaterProfile{}
	t.tonight = map[string]map[string]int{}
	t.accepted = map[string]int{}

	for _, v := range t.seed.Venues {
		t.venues = append(t.venues, v.Name)
		for _, ps := range v.Performers {
			p := &performer{
				Performer: model.Performer{
					ID:         ps.ID,
					Name:       ps.Name,
					Bio:        ps.Bio,
					SocialLink: ps.SocialLink,
					SetTime:    ps.SetTime,
				},
				venue:       v.Name,
				allTime:     seedTally(ps.History),
				allTimeTags: map[string]int{},
				todayTags:   map[string]int{},
			}
			t.performers[p.ID] = p
			t.roster[v.Name] = append(t.roster[v.Name], p.ID)
		}
	}

	t.day = ""
	t.rollover()

	for _, v := range t.seed.Venues {
		for _, ps := range v.Performers {
			p := t.performers[ps.ID]
			p.prevAverage, p.hasPrev = p.allTime.average(), p.allTime.count > 0
			tonight := seedTally(ps.Tonight)
			p.today = tonight
			p.allTime.sum += tonight.sum
			p.allTime.count += tonight.count
			p.allTime.comments += tonight.comments
		}
	}
}

func seedTally(s TallySeed) tally {
	return tally{sum: s.Average * float64(s.Ratings), count: s.Ratings, comments: s.Comments}
}

// rollover starts a new night when the clock has moved past midnight.
func (t *Twin) rollover() {
	day := t.now().In(t.loc).Format(time.DateOnly)
	if day == t.day {
		return
	}
	for _, p := range t.performers {
		xp := t.scorer.XP(p.allTime.count, p.allTime.comments)
		p.dayStartXP = xp
		p.xpMarks = append(p.xpMarks, xp)
		if len(p.xpMarks) > t.weekDays {
			p.xpMarks = p.xpMarks[len(p.xpMarks)-t.weekDays:]
		}
		p.today = tally{}
		p.todayTags = map[string]int{}
	}
	t.tonight = map[string]map[string]int{}
	t.day = day
}

// request is the union of every argument the actions accept.
type request struct {
	Action      string `json:"action"`
	PerformerID string `json:"performerId"`
	Token       string `json:"token"`
	backend.SubmitRatingsRequest
}

// ServeHTTP decodes an action request and writes its response envelope.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, backend.Envelope{Status: "error", Message: "method not allowed"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, backend.Envelope{Status: "error", Message: err.Error()})
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, backend.Envelope{Status: "error", Message: "invalid JSON: " + err.Error()})
		return
	}

	resp, err := t.do(req)
	if err != nil {
		t.log.Debug(r.Context(), "twin action failed", logger.String("action", req.Action), logger.Error(err))
		writeJSON(w, http.StatusOK, backend.Envelope{Status: "error", Message: err.Error()})
		return
	}
	resp["status"] = backend.StatusSuccess
	writeJSON(w, http.StatusOK, resp)
}

// do runs one action against the state.
func (t *Twin) do(req request) (map[string]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	switch req.Action {
	case backend.ActionLeaderboardToday:
		rows, err := t.rows(req.VenueName, model.ScopeToday)
		return map[string]any{"leaderboard": rows}, err
	case backend.ActionLeaderboardAllTime:
		rows, err := t.rows(req.VenueName, model.ScopeAllTime)
		return map[string]any{"leaderboard": rows}, err
	case backend.ActionPerformers:
		roster, err := t.rosterOf(req.VenueName)
		return map[string]any{"performers": roster}, err
	case backend.ActionRaterStats:
		return map[string]any{"stats": t.profile(req.RaterEmail)}, nil
	case backend.ActionScoutLevels:
		levels := append([]model.ScoutLevel{}, t.seed.Levels...)
		return map[string]any{"scoutLevels": levels}, nil
	case backend.ActionSubmitRatings:
		points, err := t.submit(req.SubmitRatingsRequest)
		return map[string]any{"pointsEarned": points}, err
	case backend.ActionSummaryToday:
		summary, err := t.summary(req.PerformerID, model.ScopeToday)
		return map[string]any{"summary": summary}, err
	case backend.ActionSummaryAllTime:
		summary, err := t.summary(req.PerformerID, model.ScopeAllTime)
		return map[string]any{"summary": summary}, err
	case backend.ActionVerifyToken:
		tok, ok := t.seed.Tokens[strings.TrimSpace(req.Token)]
		if !ok || req.Token == "" {
			return nil, errInvalidToken
		}
		return map[string]any{"email": tok.Email, "venue": tok.Venue, "firstName": tok.FirstName, "lastName": tok.LastName}, nil
	case backend.ActionVenuesForToday:
		venues := make([]string, 0, len(t.venues))
		for _, v := range t.venues {
			if len(t.roster[v]) > 0 {
				venues = append(venues, v)
			}
		}
		return map[string]any{"venues": venues}, nil
	case backend.ActionFeedbackTags:
		return map[string]any{"positive": nonNil(t.seed.Tags.Positive), "constructive": nonNil(t.seed.Tags.Constructive)}, nil
	case backend.ActionTodaysRatings:
		ratings := map[string]int{}
		for id, stars := range t.tonight[raterKey(req.RaterEmail, req.VenueName)] {
			ratings[id] = stars
		}
		return map[string]any{"ratings": ratings}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownAction, req.Action)
	}
}

func (t *Twin) rosterOf(venue string) ([]model.Performer, error) {
	ids, ok := t.roster[venue]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownVenue, venue)
	}
	out := make([]model.Performer, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.performers[id].Performer)
	}
	return out, nil
}

// rows renders the venue's statistics for scope. Tonight's list only holds
// performers rated tonight.
func (t *Twin) rows(venue string, scope model.Scope) ([]model.RawPerformerStat, error) {
	ids, ok := t.roster[venue]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownVenue, venue)
	}
	out := make([]model.RawPerformerStat, 0, len(ids))
	for _, id := range ids {
		p := t.performers[id]
		row := model.RawPerformerStat{ID: p.ID, Name: p.Name}
		if p.Bio != "" {
			row.Bio = &p.Bio
		}
		if p.SocialLink != "" {
			row.SocialLink = &p.SocialLink
		}
		xp := t.scorer.XP(p.allTime.count, p.allTime.comments)
		row.XP = &xp
		if scope == model.ScopeToday {
			if p.today.count == 0 {
				continue
			}
			row.AverageRating, row.RatingCount, row.CommentCount = p.today.average(), p.today.count, p.today.comments
			base := p.dayStartXP
			row.BaselineXP = &base
		} else {
			row.AverageRating, row.RatingCount, row.CommentCount = p.allTime.average(), p.allTime.count, p.allTime.comments
			if p.hasPrev {
				base := p.prevAverage
				row.BaselineRating = &base
			}
			if len(p.xpMarks) > 0 {
				base := p.xpMarks[0]
				row.BaselineXP = &base
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *Twin) profile(email string) model.RaterProfile {
	if p, ok := t.raters[strings.ToLower(strings.TrimSpace(email))]; ok {
		return *p
	}
	return model.RaterProfile{}
}

// submit folds a batch of ratings into the tallies and returns the scout
// points it earned. Replaying a submission id returns the original points.
func (t *Twin) submit(req backend.SubmitRatingsRequest) (int, error) {
	if req.SubmissionID != "" {
		if points, ok := t.accepted[req.SubmissionID]; ok {
			return points, nil
		}
	}
	email := strings.ToLower(strings.TrimSpace(req.RaterEmail))
	if email == "" || len(req.Ratings) == 0 {
		return 0, fmt.Errorf("%w: rater and ratings are required", errBadRequest)
	}
	if _, ok := t.roster[req.VenueName]; !ok {
		return 0, fmt.Errorf("%w: %q", errUnknownVenue, req.VenueName)
	}
	key := raterKey(email, req.VenueName)
	seen := map[string]struct{}{}
	for _, r := range req.Ratings {
		p, ok := t.performers[r.PerformerID]
		if !ok || p.venue != req.VenueName {
			return 0, fmt.Errorf("%w: %q", errUnknownPerformer, r.PerformerID)
		}
		if r.Stars < 1 || r.Stars > 5 {
			return 0, fmt.Errorf("%w: rating for %q must be 1-5", errBadRequest, r.PerformerID)
		}
		if _, dup := seen[r.PerformerID]; dup {
			return 0, fmt.Errorf("%w: %q rated twice", errBadRequest, r.PerformerID)
		}
		if _, done := t.tonight[key][r.PerformerID]; done {
			return 0, fmt.Errorf("%w: %s already rated tonight", errBadRequest, p.Name)
		}
		seen[r.PerformerID] = struct{}{}
	}

	prof, ok := t.raters[email]
	if !ok {
		prof = &model.RaterProfile{}
		t.raters[email] = prof
	}
	if t.tonight[key] == nil {
		t.tonight[key] = map[string]int{}
	}

	points := t.scorer.Submission(req.Ratings)
	for _, r := range req.Ratings {
		p := t.performers[r.PerformerID]
		commented := 0
		if scoring.Commented(r) {
			commented = 1
		}
		p.prevAverage, p.hasPrev = p.allTime.average(), p.allTime.count > 0
		for _, tl := range []*tally{&p.today, &p.allTime} {
			tl.sum += float64(r.Stars)
			tl.count++
			tl.comments += commented
		}
		for _, tag := range r.Tags {
			p.todayTags[tag]++
			p.allTimeTags[tag]++
		}
		t.tonight[key][r.PerformerID] = r.Stars
		prof.RatingsSubmitted++
		prof.CommentsWritten += commented
	}
	prof.TotalSP += points
	if req.SubmissionID != "" {
		t.accepted[req.SubmissionID] = points
	}
	return points, nil
}

// summary describes the recurring feedback tags of a performer.
func (t *Twin) summary(id string, scope model.Scope) (string, error) {
	p, ok := t.performers[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnknownPerformer, id)
	}
	tl, tags, when := p.allTime, p.allTimeTags, "overall"
	if scope == model.ScopeToday {
		tl, tags, when = p.today, p.todayTags, "tonight"
	}
	if tl.comments < 2 {
		return "", errNotEnoughFeedback
	}
	top := topTags(tags, 2)
	if len(top) == 0 {
		return fmt.Sprintf("%s has %d comments %s with no recurring themes.", p.Name, tl.comments, when), nil
	}
	return fmt.Sprintf("%s has %d comments %s. Audiences keep mentioning %s.", p.Name, tl.comments, when, strings.Join(top, " and ")), nil
}

func topTags(tags map[string]int, n int) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if tags[names[i]] != tags[names[j]] {
			return tags[names[i]] > tags[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func raterKey(email, venue string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + venue
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
