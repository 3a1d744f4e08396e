package ingest_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/stagerank/internal/domain/ingest"
	"github.com/okian/stagerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func raw(id string, avg float64, ratings, comments int) model.RawPerformerStat {
	return model.RawPerformerStat{ID: id, Name: "Act " + id, AverageRating: avg, RatingCount: ratings, CommentCount: comments}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		in    model.RawPerformerStat
		field string
	}{
		{"empty id", raw("  ", 4, 1, 0), "id"},
		{"negative rating count", raw("a", 0, -1, 0), "ratingCount"},
		{"negative comment count", raw("a", 4, 1, -2), "commentCount"},
		{"NaN average", raw("a", math.NaN(), 1, 0), "averageRating"},
		{"infinite average", raw("a", math.Inf(1), 1, 0), "averageRating"},
		{"average above five", raw("a", 5.1, 1, 0), "averageRating"},
		{"negative average", raw("a", -0.5, 1, 0), "averageRating"},
		{"average without ratings", raw("a", 3.2, 0, 0), "averageRating"},
		{"negative xp", func() model.RawPerformerStat { r := raw("a", 4, 1, 0); r.XP = intPtr(-1); return r }(), "xp"},
		{"negative baseline xp", func() model.RawPerformerStat { r := raw("a", 4, 1, 0); r.BaselineXP = intPtr(-3); return r }(), "baselineXp"},
		{"baseline rating out of range", func() model.RawPerformerStat { r := raw("a", 4, 1, 0); r.BaselineRating = floatPtr(7); return r }(), "baselineRating"},
	}

	Convey("Given malformed raw records", t, func() {
		for _, tc := range cases {
			Convey("When the record has "+tc.name, func() {
				err := ingest.Validate(tc.in)

				Convey("Then a validation error names the field", func() {
					So(err, ShouldNotBeNil)
					var verr *ingest.ValidationError
					So(errors.As(err, &verr), ShouldBeTrue)
					So(verr.Field, ShouldEqual, tc.field)
					So(errors.Is(err, ingest.ErrInvalidRecord), ShouldBeTrue)
				})
			})
		}
	})

	Convey("Given valid boundary records", t, func() {
		Convey("Then zero and five star averages pass", func() {
			So(ingest.Validate(raw("a", 5, 3, 0)), ShouldBeNil)
			So(ingest.Validate(raw("b", 0, 0, 4)), ShouldBeNil)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a raw record with every optional field", t, func() {
		r := raw(" p1 ", 4.5, 2, 1)
		r.XP = intPtr(30)
		r.Bio = strPtr("  juggler ")
		r.SocialLink = strPtr("https://example.test/p1")
		r.BaselineRating = floatPtr(4.0)
		r.BaselineXP = intPtr(10)
		r.RatingTrend = "UP"

		agg, err := ingest.Normalize(r)

		Convey("Then every field is carried over with presence flags", func() {
			So(err, ShouldBeNil)
			So(agg.ID, ShouldEqual, "p1")
			So(agg.XP, ShouldEqual, 30)
			So(agg.HasXP, ShouldBeTrue)
			So(agg.Bio, ShouldEqual, "juggler")
			So(agg.SocialLink, ShouldEqual, "https://example.test/p1")
			So(agg.HasRatingBaseline, ShouldBeTrue)
			So(agg.RatingBaseline, ShouldEqual, 4.0)
			So(agg.HasXPBaseline, ShouldBeTrue)
		})

		Convey("And legacy trend flags are ignored", func() {
			So(agg.RatingTrend, ShouldEqual, model.TrendStable)
			So(agg.XPTrend, ShouldEqual, model.TrendStable)
		})
	})

	Convey("Given a raw record without optional fields", t, func() {
		agg, err := ingest.Normalize(raw("p2", 0, 0, 0))

		Convey("Then absence is explicit", func() {
			So(err, ShouldBeNil)
			So(agg.HasXP, ShouldBeFalse)
			So(agg.HasRatingBaseline, ShouldBeFalse)
			So(agg.HasXPBaseline, ShouldBeFalse)
			So(agg.Bio, ShouldBeEmpty)
		})
	})
}

func TestIngest(t *testing.T) {
	Convey("Given a batch with one bad record", t, func() {
		batch := []model.RawPerformerStat{
			raw("a", 4, 2, 0),
			raw("b", 9, 2, 0),
			raw("c", 3, 1, 0),
		}

		Convey("When ingesting strictly", func() {
			out, err := ingest.Ingest(batch)

			Convey("Then the whole batch fails on the first violation", func() {
				So(out, ShouldBeNil)
				var verr *ingest.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.ID, ShouldEqual, "b")
				So(verr.Field, ShouldEqual, "averageRating")
			})
		})

		Convey("When ingesting leniently", func() {
			out, rejected := ingest.IngestLenient(batch)

			Convey("Then only the bad record is dropped", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].ID, ShouldEqual, "a")
				So(out[1].ID, ShouldEqual, "c")
				So(rejected, ShouldHaveLength, 1)
				So(rejected[0].ID, ShouldEqual, "b")
			})
		})
	})

	Convey("Given a batch with a duplicate id", t, func() {
		batch := []model.RawPerformerStat{raw("a", 4, 2, 0), raw("a", 3, 1, 0)}

		Convey("Then strict ingestion rejects it", func() {
			_, err := ingest.Ingest(batch)
			So(errors.Is(err, ingest.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("Then lenient ingestion keeps the first", func() {
			out, rejected := ingest.IngestLenient(batch)
			So(out, ShouldHaveLength, 1)
			So(out[0].AverageRating, ShouldEqual, 4)
			So(rejected, ShouldHaveLength, 1)
		})
	})

	Convey("Given an empty batch", t, func() {
		out, err := ingest.Ingest(nil)

		Convey("Then the result is empty and not an error", func() {
			So(err, ShouldBeNil)
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestValidateLevels(t *testing.T) {
	Convey("Given scout level tables", t, func() {
		Convey("Then an ascending table passes", func() {
			So(ingest.ValidateLevels([]model.ScoutLevel{{Name: "New", MinSP: 0}, {Name: "Rising", MinSP: 100}}), ShouldBeNil)
		})

		Convey("Then an empty table passes", func() {
			So(ingest.ValidateLevels(nil), ShouldBeNil)
		})

		Convey("Then a duplicate threshold is a configuration error", func() {
			err := ingest.ValidateLevels([]model.ScoutLevel{{Name: "A", MinSP: 0}, {Name: "B", MinSP: 0}})
			var cerr *ingest.ConfigurationError
			So(errors.As(err, &cerr), ShouldBeTrue)
			So(cerr.Index, ShouldEqual, 1)
			So(errors.Is(err, ingest.ErrInvalidLevels), ShouldBeTrue)
		})

		Convey("Then a descending table is a configuration error", func() {
			So(ingest.ValidateLevels([]model.ScoutLevel{{Name: "A", MinSP: 50}, {Name: "B", MinSP: 10}}), ShouldNotBeNil)
		})

		Convey("Then negative thresholds and blank names are rejected", func() {
			So(ingest.ValidateLevels([]model.ScoutLevel{{Name: "A", MinSP: -1}}), ShouldNotBeNil)
			So(ingest.ValidateLevels([]model.ScoutLevel{{Name: " ", MinSP: 0}}), ShouldNotBeNil)
		})
	})
}
