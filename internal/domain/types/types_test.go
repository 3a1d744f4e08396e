package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func encode(v any) map[string]any {
	b, err := json.Marshal(v)
	So(err, ShouldBeNil)
	var out map[string]any
	So(json.Unmarshal(b, &out), ShouldBeNil)
	return out
}

func TestEntry(t *testing.T) {
	Convey("Given an unrated leaderboard row", t, func() {
		e := types.Entry{Rank: 3, PerformerID: "p3", Name: "Devon Reyes", RatingTrend: model.TrendStable, XPTrend: model.TrendStable}

		Convey("When it is encoded", func() {
			out := encode(e)

			Convey("Then optional fields are omitted", func() {
				So(out, ShouldNotContainKey, "tier")
				So(out, ShouldNotContainKey, "xp")
				So(out, ShouldNotContainKey, "bio")
				So(out, ShouldNotContainKey, "social_link")
			})

			Convey("Then counters are always present", func() {
				So(out["rating_count"], ShouldEqual, 0.0)
				So(out["hype"], ShouldEqual, 0.0)
				So(out["performer_id"], ShouldEqual, "p3")
			})
		})
	})

	Convey("Given a ranked row with XP", t, func() {
		xp := 120
		e := types.Entry{Rank: 1, Tier: "1st", PerformerID: "p1", XP: &xp, Hype: 87}

		Convey("Then tier and xp are encoded", func() {
			out := encode(e)
			So(out["tier"], ShouldEqual, "1st")
			So(out["xp"], ShouldEqual, 120.0)
			So(out["hype"], ShouldEqual, 87.0)
		})
	})
}

func TestCard(t *testing.T) {
	Convey("Given a card for a performer not yet rated tonight", t, func() {
		c := types.Card{PerformerID: "p2", Name: "The Night Owls", AllTime: types.ScopeStats{RatingCount: 4}}

		Convey("When it is encoded", func() {
			out := encode(c)

			Convey("Then tonight's stats are absent and all-time is present", func() {
				So(out, ShouldNotContainKey, "today")
				So(out, ShouldNotContainKey, "today_tier")
				So(out, ShouldContainKey, "all_time")
				So(out["can_summarize"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a card rated tonight", t, func() {
		c := types.Card{PerformerID: "p1", TodayTier: "2nd", Today: &types.ScopeStats{RatingCount: 2}, CanSummary: true}

		Convey("Then tonight's stats are encoded", func() {
			out := encode(c)
			So(out["today_tier"], ShouldEqual, "2nd")
			So(out["today"].(map[string]any)["rating_count"], ShouldEqual, 2.0)
			So(out["can_summarize"], ShouldEqual, true)
		})
	})
}
