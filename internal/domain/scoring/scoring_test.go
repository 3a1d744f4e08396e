package scoring_test

import (
	"strings"
	"testing"

	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScorer_Rating(t *testing.T) {
	Convey("Given a scorer with default awards", t, func() {
		s := scoring.New()

		Convey("When a rating has stars only", func() {
			Convey("Then it earns the base points", func() {
				So(s.Rating(model.Rating{PerformerID: "p1", Stars: 4}), ShouldEqual, 5)
			})
		})

		Convey("When a rating has tags and a short comment", func() {
			r := model.Rating{PerformerID: "p1", Stars: 5, Tags: []string{"Great Vocals"}, Comment: "Brave first set"}

			Convey("Then tags and comment are both rewarded", func() {
				So(s.Rating(r), ShouldEqual, 20)
			})
		})

		Convey("When a comment is longer than fifty runes", func() {
			r := model.Rating{PerformerID: "p1", Stars: 3, Comment: strings.Repeat("é", 51)}

			Convey("Then the long comment bonus applies", func() {
				So(s.Rating(r), ShouldEqual, 35)
			})
		})

		Convey("When a comment is exactly fifty runes", func() {
			r := model.Rating{PerformerID: "p1", Stars: 3, Comment: strings.Repeat("a", 50)}

			Convey("Then no bonus applies", func() {
				So(s.Rating(r), ShouldEqual, 10)
			})
		})

		Convey("When a comment is blank", func() {
			r := model.Rating{PerformerID: "p1", Stars: 3, Comment: "   "}

			Convey("Then it is not counted", func() {
				So(s.Rating(r), ShouldEqual, 5)
				So(scoring.Commented(r), ShouldBeFalse)
			})
		})

		Convey("When a whole submission is scored", func() {
			ratings := []model.Rating{
				{PerformerID: "p1", Stars: 4},
				{PerformerID: "p2", Stars: 5, Tags: []string{"Stage Presence"}},
			}

			Convey("Then the points are summed", func() {
				So(s.Submission(ratings), ShouldEqual, 20)
				So(s.Submission(nil), ShouldEqual, 0)
			})
		})

		Convey("When XP is computed", func() {
			Convey("Then ratings and comments are weighted", func() {
				So(s.XP(3, 2), ShouldEqual, 40)
				So(s.XP(0, 0), ShouldEqual, 0)
			})
		})
	})
}

func TestWithAwards(t *testing.T) {
	Convey("Given custom awards", t, func() {
		a := scoring.DefaultAwards()
		a.PerRating = 1
		a.XPPerComment = -3
		s := scoring.New(scoring.WithAwards(a))

		Convey("Then valid values replace the defaults", func() {
			So(s.Awards().PerRating, ShouldEqual, 1)
			So(s.Rating(model.Rating{PerformerID: "p1", Stars: 2}), ShouldEqual, 1)
		})

		Convey("Then negative values are ignored", func() {
			So(s.Awards().XPPerComment, ShouldEqual, 5)
		})
	})
}
