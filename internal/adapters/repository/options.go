package repository

import "time"

type settings struct {
	now func() time.Time
}

// Option configures a snapshot store.
type Option func(*settings)

// WithClock overrides the time source used for snapshots recorded without a
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
