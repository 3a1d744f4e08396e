package twin

import (
	"time"

	"github.com/okian/stagerank/internal/domain/scoring"
	"github.com/okian/stagerank/pkg/logger"
)

// Option configures a Twin.
type Option func(*Twin)

// WithClock sets the time source used for day rollover.
func WithClock(now func() time.Time) Option {
	return func(t *Twin) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLocation sets the zone whose midnight starts a new night.
func WithLocation(loc *time.Location) Option {
	return func(t *Twin) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithWeekDays sets the length of the window used for all-time XP baselines.
func WithWeekDays(days int) Option {
	return func(t *Twin) {
		if days > 0 {
			t.weekDays = days
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Twin) {
		if l != nil {
			t.log = l
		}
	}
}

// WithScorer sets the point and XP rules.
func WithScorer(s *scoring.Scorer) Option {
	return func(t *Twin) {
		if s != nil {
			t.scorer = s
		}
	}
}
