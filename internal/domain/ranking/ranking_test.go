package ranking_test

import (
	"testing"

	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func agg(id string, avg float64, count int) model.PerformerAggregate {
	return model.PerformerAggregate{ID: id, Name: id, AverageRating: avg, RatingCount: count}
}

func ids(aggs []model.PerformerAggregate) []string {
	out := make([]string, len(aggs))
	for i, a := range aggs {
		out[i] = a.ID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given performers tied on average rating", t, func() {
		in := []model.PerformerAggregate{
			agg("A", 4.8, 10),
			agg("B", 4.8, 15),
			agg("C", 0, 0),
		}

		Convey("When ranking", func() {
			out := ranking.Rank(in)

			Convey("Then rating count breaks the tie and the unrated performer is last", func() {
				So(ids(out), ShouldResemble, []string{"B", "A", "C"})
			})

			Convey("And the input slice is untouched", func() {
				So(ids(in), ShouldResemble, []string{"A", "B", "C"})
			})
		})
	})

	Convey("Given a low-rated performer and an unrated one", t, func() {
		in := []model.PerformerAggregate{
			agg("unrated", 0, 0),
			agg("low", 1.0, 1),
		}

		Convey("Then the genuinely low rating still ranks ahead", func() {
			So(ids(ranking.Rank(in)), ShouldResemble, []string{"low", "unrated"})
		})
	})

	Convey("Given performers fully tied on every key", t, func() {
		in := []model.PerformerAggregate{
			agg("x", 4.0, 3),
			agg("y", 4.0, 3),
			agg("z", 4.0, 3),
		}

		Convey("Then input order is preserved", func() {
			So(ids(ranking.Rank(in)), ShouldResemble, []string{"x", "y", "z"})
		})
	})

	Convey("Given an empty or nil input", t, func() {
		Convey("Then the result is an empty, non-nil list", func() {
			So(ranking.Rank(nil), ShouldNotBeNil)
			So(ranking.Rank(nil), ShouldBeEmpty)
			So(ranking.Rank([]model.PerformerAggregate{}), ShouldBeEmpty)
			So(ranking.Leaderboard(nil), ShouldBeEmpty)
		})
	})
}

func TestLess(t *testing.T) {
	Convey("Given two performers", t, func() {
		high := agg("high", 4.9, 2)
		low := agg("low", 3.1, 40)

		Convey("Then average rating dominates rating count", func() {
			So(ranking.Less(high, low), ShouldBeTrue)
			So(ranking.Less(low, high), ShouldBeFalse)
		})

		Convey("And a performer is never less than itself", func() {
			So(ranking.Less(high, high), ShouldBeFalse)
		})
	})
}

func TestAssignTiers(t *testing.T) {
	Convey("Given five rated performers", t, func() {
		rows := ranking.Leaderboard([]model.PerformerAggregate{
			agg("e", 3.0, 1),
			agg("a", 5.0, 1),
			agg("d", 3.5, 1),
			agg("b", 4.5, 1),
			agg("c", 4.0, 1),
		})

		Convey("Then only the first three get podium tiers", func() {
			So(rows, ShouldHaveLength, 5)
			So(rows[0].Tier.String(), ShouldEqual, "1st")
			So(rows[1].Tier.String(), ShouldEqual, "2nd")
			So(rows[2].Tier.String(), ShouldEqual, "3rd")
			So(rows[3].Tier, ShouldEqual, ranking.TierNone)
			So(rows[4].Tier, ShouldEqual, ranking.TierNone)
		})

		Convey("And positions are 1-based", func() {
			for i, r := range rows {
				So(r.Position, ShouldEqual, i+1)
			}
		})
	})

	Convey("Given only two rated performers among four", t, func() {
		rows := ranking.Leaderboard([]model.PerformerAggregate{
			agg("u1", 0, 0),
			agg("r1", 4.2, 7),
			agg("u2", 0, 0),
			agg("r2", 3.9, 2),
		})

		Convey("Then only two tiers are assigned", func() {
			So(rows[0].Tier, ShouldEqual, ranking.TierFirst)
			So(rows[1].Tier, ShouldEqual, ranking.TierSecond)
			So(rows[2].Tier, ShouldEqual, ranking.TierNone)
			So(rows[2].Performer.Rated(), ShouldBeFalse)
		})
	})
}
