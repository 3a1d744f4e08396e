// Package scoring computes the scout points and performer XP a rating earns.
package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/stagerank/internal/domain/model"
)

// Default award values.
const (
	defaultPerRating      = 5
	defaultForTags        = 10
	defaultForComment     = 5
	defaultForLongComment = 25
	defaultLongComment    = 50

	defaultXPPerRating  = 10
	defaultXPPerComment = 5
)

// Awards holds the point values of each rating feature.
type Awards struct {
	PerRating      int
	ForTags        int
	ForComment     int
	ForLongComment int
	// LongComment is the rune count a comment must exceed to be long.
	LongComment int

	XPPerRating  int
	XPPerComment int
}

// DefaultAwards returns the standard award values.
func DefaultAwards() Awards {
	return Awards{
		PerRating:      defaultPerRating,
		ForTags:        defaultForTags,
		ForComment:     defaultForComment,
		ForLongComment: defaultForLongComment,
		LongComment:    defaultLongComment,
		XPPerRating:    defaultXPPerRating,
		XPPerComment:   defaultXPPerComment,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithAwards replaces the award table. Negative values are ignored.
func WithAwards(a Awards) Option {
	return func(s *Scorer) {
		set := func(dst *int, v int) {
			if v >= 0 {
				*dst = v
			}
		}
		set(&s.awards.PerRating, a.PerRating)
		set(&s.awards.ForTags, a.ForTags)
		set(&s.awards.ForComment, a.ForComment)
		set(&s.awards.ForLongComment, a.ForLongComment)
		set(&s.awards.LongComment, a.LongComment)
		set(&s.awards.XPPerRating, a.XPPerRating)
		set(&s.awards.XPPerComment, a.XPPerComment)
	}
}

// Scorer awards scout points to raters and XP to performers.
type Scorer struct {
	awards Awards
}

// New creates a Scorer with the default awards.
func New(opts ...Option) *Scorer {
	s := &Scorer{awards: DefaultAwards()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Awards returns the award table in use.
func (s *Scorer) Awards() Awards { return s.awards }

// Commented reports whether r carries a non-blank comment.
func Commented(r model.Rating) bool {
	return strings.TrimSpace(r.Comment) != ""
}

// Rating returns the scout points a single rating earns.
func (s *Scorer) Rating(r model.Rating) int {
	points := s.awards.PerRating
	if len(r.Tags) > 0 {
		points += s.awards.ForTags
	}
	if comment := strings.TrimSpace(r.Comment); comment != "" {
		points += s.awards.ForComment
		if utf8.RuneCountInString(comment) > s.awards.LongComment {
			points += s.awards.ForLongComment
		}
	}
	return points
}

// Submission returns the scout points earned by all ratings.
func (s *Scorer) Submission(ratings []model.Rating) int {
	total := 0
	for _, r := range ratings {
		total += s.Rating(r)
	}
	return total
}

// XP returns the experience a performer holds after the given number of
// ratings and comments.
func (s *Scorer) XP(ratings, comments int) int {
	return s.awards.XPPerRating*ratings + s.awards.XPPerComment*comments
}
