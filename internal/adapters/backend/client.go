// Package backend is the client for the action-based ratings backend.
//
// Every call is a POST of a JSON object carrying an "action" field. The body
// is sent as text/plain so browser deployments avoid CORS preflights; the
// response is a JSON object whose "status" must be "success".
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20

	contentType     = "text/plain;charset=utf-8"
	requestIDHeader = "X-Request-ID"
)

// Client talks to the backend endpoint.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	log     logger.Logger
}

// New creates a client for the endpoint at url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Inf, 0),
		timeout: defaultTimeout,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAggregates returns the raw per-performer statistics of venue for scope.
func (c *Client) FetchAggregates(ctx context.Context, venue string, scope model.Scope) ([]model.RawPerformerStat, error) {
	action := ActionLeaderboardToday
	if scope == model.ScopeAllTime {
		action = ActionLeaderboardAllTime
	}
	var out struct {
		Leaderboard []model.RawPerformerStat `json:"leaderboard"`
	}
	if err := c.call(ctx, action, map[string]any{"venueName": venue}, &out); err != nil {
		return nil, err
	}
	if out.Leaderboard == nil {
		return nil, malformed(action, "leaderboard")
	}
	return out.Leaderboard, nil
}

// FetchRoster returns tonight's performers at venue in running order.
func (c *Client) FetchRoster(ctx context.Context, venue string) ([]model.Performer, error) {
	var out struct {
		Performers []model.Performer `json:"performers"`
	}
	if err := c.call(ctx, ActionPerformers, map[string]any{"venueName": venue}, &out); err != nil {
		return nil, err
	}
	if out.Performers == nil {
		return nil, malformed(ActionPerformers, "performers")
	}
	return out.Performers, nil
}

// FetchRaterProfile returns the cumulative stats of a rater.
func (c *Client) FetchRaterProfile(ctx context.Context, raterEmail string) (model.RaterProfile, error) {
	var out struct {
		Stats *model.RaterProfile `json:"stats"`
	}
	if err := c.call(ctx, ActionRaterStats, map[string]any{"raterEmail": raterEmail}, &out); err != nil {
		return model.RaterProfile{}, err
	}
	if out.Stats == nil {
		return model.RaterProfile{}, malformed(ActionRaterStats, "stats")
	}
	return *out.Stats, nil
}

// FetchScoutLevels returns the scout level table as stored by the backend.
// The table is not validated here.
func (c *Client) FetchScoutLevels(ctx context.Context) ([]model.ScoutLevel, error) {
	var out struct {
		ScoutLevels []model.ScoutLevel `json:"scoutLevels"`
	}
	if err := c.call(ctx, ActionScoutLevels, nil, &out); err != nil {
		return nil, err
	}
	if out.ScoutLevels == nil {
		return nil, malformed(ActionScoutLevels, "scoutLevels")
	}
	return out.ScoutLevels, nil
}

// SubmitRatingsRequest is the wire form of a rating submission.
type SubmitRatingsRequest struct {
	SubmissionID string         `json:"submissionId,omitempty"`
	Ratings      []model.Rating `json:"ratings"`
	RaterEmail   string         `json:"raterEmail"`
	VenueName    string         `json:"venueName"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
}

// NewSubmitRatingsRequest converts a submission to its wire form.
func NewSubmitRatingsRequest(s model.Submission) SubmitRatingsRequest {
	req := SubmitRatingsRequest{
		SubmissionID: s.ID,
		Ratings:      s.Ratings,
		RaterEmail:   s.RaterEmail,
		VenueName:    s.Venue,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
	}
	if s.Coords != nil {
		lat, lng := s.Coords.Latitude, s.Coords.Longitude
		req.Latitude, req.Longitude = &lat, &lng
	}
	return req
}

// SubmitRatings forwards a submission and returns the scout points earned.
// A response without pointsEarned counts as zero.
func (c *Client) SubmitRatings(ctx context.Context, s model.Submission) (int, error) {
	var out struct {
		PointsEarned int `json:"pointsEarned"`
	}
	if err := c.call(ctx, ActionSubmitRatings, NewSubmitRatingsRequest(s), &out); err != nil {
		return 0, err
	}
	return out.PointsEarned, nil
}

// FeedbackSummary returns the backend's summary of comments for a performer.
func (c *Client) FeedbackSummary(ctx context.Context, performerID, venue string, scope model.Scope) (string, error) {
	action := ActionSummaryToday
	if scope == model.ScopeAllTime {
		action = ActionSummaryAllTime
	}
	var out struct {
		Summary string `json:"summary"`
	}
	args := map[string]any{"performerId": performerID, "venueName": venue}
	if err := c.call(ctx, action, args, &out); err != nil {
		return "", err
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// VerifyToken exchanges a login token for the rater identity it was issued to.
func (c *Client) VerifyToken(ctx context.Context, token string) (model.Identity, error) {
	var out model.Identity
	if err := c.call(ctx, ActionVerifyToken, map[string]any{"token": token}, &out); err != nil {
		return model.Identity{}, err
	}
	if out.Email == "" {
		return model.Identity{}, malformed(ActionVerifyToken, "email")
	}
	return out, nil
}

// VenuesForToday lists venues with a show tonight.
func (c *Client) VenuesForToday(ctx context.Context) ([]string, error) {
	var out struct {
		Venues []string `json:"venues"`
	}
	if err := c.call(ctx, ActionVenuesForToday, nil, &out); err != nil {
		return nil, err
	}
	if out.Venues == nil {
		return nil, malformed(ActionVenuesForToday, "venues")
	}
	return out.Venues, nil
}

// FeedbackTags returns the positive and constructive tag lists.
func (c *Client) FeedbackTags(ctx context.Context) (model.FeedbackTags, error) {
	var out model.FeedbackTags
	if err := c.call(ctx, ActionFeedbackTags, nil, &out); err != nil {
		return model.FeedbackTags{}, err
	}
	if out.Positive == nil || out.Constructive == nil {
		return model.FeedbackTags{}, malformed(ActionFeedbackTags, "positive/constructive")
	}
	return out, nil
}

// TodaysRatings returns the stars a rater already gave tonight, by performer id.
func (c *Client) TodaysRatings(ctx context.Context, raterEmail, venue string) (map[string]int, error) {
	var out struct {
		Ratings map[string]int `json:"ratings"`
	}
	args := map[string]any{"raterEmail": raterEmail, "venueName": venue}
	if err := c.call(ctx, ActionTodaysRatings, args, &out); err != nil {
		return nil, err
	}
	if out.Ratings == nil {
		return nil, malformed(ActionTodaysRatings, "ratings")
	}
	return out.Ratings, nil
}

// call posts action with args merged into the request object and decodes a
// successful response into out.
func (c *Client) call(ctx context.Context, action string, args any, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordBackendRequest(action, outcome, float64(time.Since(start).Microseconds())/1000)
	}()

	body, err := encodeRequest(action, args)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, action, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("backend %s: create request: %w", action, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(requestIDHeader, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "backend call failed", logger.String("action", action), logger.String("request_id", reqID), logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %w", ErrUnavailable, action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(action, resp.StatusCode, raw)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if looksLikeHTML(raw) {
			return fmt.Errorf("%w: %s", ErrPermission, action)
		}
		return fmt.Errorf("%w: %s: %w", ErrMalformed, action, err)
	}
	if env.Status != StatusSuccess {
		msg := env.Message
		if msg == "" {
			msg = "unspecified error"
		}
		return &RemoteError{Action: action, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, action, err)
	}
	c.log.Debug(ctx, "backend call", logger.String("action", action), logger.String("request_id", reqID), logger.Duration("took", time.Since(start)))
	return nil
}

// encodeRequest flattens args into a single object next to "action".
func encodeRequest(action string, args any) ([]byte, error) {
	fields := map[string]any{}
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("backend %s: marshal request: %w", action, err)
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, fmt.Errorf("backend %s: request must be an object: %w", action, err)
		}
	}
	fields["action"] = action
	return json.Marshal(fields)
}

func statusError(action string, status int, raw []byte) error {
	if looksLikeHTML(raw) {
		return fmt.Errorf("%w: %s: status %d", ErrPermission, action, status)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return &RemoteError{Action: action, Status: status, Message: env.Message}
	}
	return fmt.Errorf("%w: %s: status %d: %s", ErrUnavailable, action, status, strings.TrimSpace(string(raw)))
}

func looksLikeHTML(raw []byte) bool {
	return bytes.Contains(bytes.ToLower(raw), []byte("<html"))
}

func malformed(action, key string) error {
	return fmt.Errorf("%w: %s: missing %q", ErrMalformed, action, key)
}

// IsRemote reports whether err is a failure reported by the backend.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
