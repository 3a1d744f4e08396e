package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/okian/stagerank/pkg/logger"
)

// Comment lengths straddle the long-comment bonus threshold.
var comments = []string{
	"Loved it",
	"Great energy tonight",
	"The second song was the highlight of the night for me, and the crowd felt it too",
	"Needs a tighter ending",
	"Lovely voice, would come back to see this set again next week with friends",
}

// plan holds everything the run needs to generate and check traffic.
type plan struct {
	sessions []session
	rosters  map[string][]card
	tags     tags
	// baseline is tonight's rating count per venue and performer before the run.
	baseline map[string]map[string]int
}

// preparePlan logs every token in and reads the rosters and tags they need.
func preparePlan(ctx context.Context, c *HTTPClient, tokens []string) (*plan, error) {
	p := &plan{rosters: make(map[string][]card), baseline: make(map[string]map[string]int)}
	for _, token := range tokens {
		var sess session
		if _, err := c.do(ctx, http.MethodPost, "/session", "", map[string]string{"token": token}, &sess); err != nil {
			return nil, fmt.Errorf("login with token %q: %w", token, err)
		}
		p.sessions = append(p.sessions, sess)
	}
	if len(p.sessions) == 0 {
		return nil, fmt.Errorf("no rater sessions")
	}
	if err := c.get(ctx, "/tags", "", &p.tags); err != nil {
		return nil, err
	}
	for _, sess := range p.sessions {
		if _, ok := p.rosters[sess.Venue]; ok {
			continue
		}
		var cards []card
		if err := c.get(ctx, "/performers?venue="+url.QueryEscape(sess.Venue), "", &cards); err != nil {
			return nil, err
		}
		counts := make(map[string]int, len(cards))
		for _, cd := range cards {
			if cd.Today != nil {
				counts[cd.PerformerID] = cd.Today.RatingCount
			}
		}
		p.rosters[sess.Venue] = cards
		p.baseline[sess.Venue] = counts
	}
	return p, nil
}

// generateSubmissions builds one submission per session rating every
// performer the rater has not rated tonight.
func generateSubmissions(ctx context.Context, c *HTTPClient, p *plan) ([]Submission, error) {
	subs := make([]Submission, 0, len(p.sessions))
	for _, sess := range p.sessions {
		var rated map[string]int
		if err := c.get(ctx, "/me/ratings", sess.ID, &rated); err != nil {
			return nil, err
		}
		sub := Submission{SessionID: sess.ID, Venue: sess.Venue, SubmissionID: uuid.NewString()}
		for _, cd := range p.rosters[sess.Venue] {
			if _, done := rated[cd.PerformerID]; done {
				continue
			}
			sub.Ratings = append(sub.Ratings, generateRating(cd, p.tags))
		}
		if len(sub.Ratings) == 0 {
			logger.Get().Debug(ctx, "rater has nothing left to rate", logger.String("email", sess.Email))
			continue
		}
		subs = append(subs, sub)
	}
	logger.Get().Info(ctx, "generated submissions", logger.Int("submissions", len(subs)))
	return subs, nil
}

func generateRating(cd card, t tags) Rating {
	r := Rating{PerformerID: cd.PerformerID, Name: cd.Name, Stars: 1 + randomInt(5)}
	pool := t.Constructive
	if r.Stars >= 4 {
		pool = t.Positive
	}
	if len(pool) > 0 && randomInt(2) == 0 {
		r.Tags = []string{pool[randomInt(len(pool))]}
	}
	if randomInt(2) == 0 {
		r.Comment = comments[randomInt(len(comments))]
	}
	return r
}

// randomInt returns a value in [0,n) using crypto/rand.
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
