package model

// RawPerformerStat is a performer statistics row as delivered by the backend.
// Pointer fields are optional on the wire.
type RawPerformerStat struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AverageRating  float64  `json:"averageRating"`
	RatingCount    int      `json:"ratingCount"`
	CommentCount   int      `json:"commentCount"`
	XP             *int     `json:"xp,omitempty"`
	Bio            *string  `json:"bio,omitempty"`
	SocialLink     *string  `json:"socialLink,omitempty"`
	BaselineRating *float64 `json:"baselineRating,omitempty"`
	BaselineXP     *int     `json:"baselineXp,omitempty"`

	// Legacy precomputed flags. Older backend deployments still send them;
	// trends are always derived locally and these are ignored.
	RatingTrend string `json:"ratingTrend,omitempty"`
	XPTrend     string `json:"xpTrend,omitempty"`
}

// HasLegacyTrend reports whether the row carries backend-computed trend flags.
func (r RawPerformerStat) HasLegacyTrend() bool {
	return r.RatingTrend != "" || r.XPTrend != ""
}

// RaterProfile holds a rater's cumulative gamification stats.
type RaterProfile struct {
	TotalSP          int `json:"totalSP"`
	RatingsSubmitted int `json:"ratingsSubmitted"`
	CommentsWritten  int `json:"commentsWritten"`
}

// ScoutLevel is one row of the ascending tier table.
type ScoutLevel struct {
	Name  string `json:"name" yaml:"name"`
	MinSP int    `json:"minSP" yaml:"min_sp"`
}

// Identity is the rater identity behind a verified login token.
type Identity struct {
	Email     string `json:"email"`
	Venue     string `json:"venue"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FeedbackTags are the selectable tag vocabularies for a rating.
type FeedbackTags struct {
	Positive     []string `json:"positive" yaml:"positive"`
	Constructive []string `json:"constructive" yaml:"constructive"`
}
