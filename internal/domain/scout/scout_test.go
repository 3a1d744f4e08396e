package scout_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/scout"
	. "github.com/smartystreets/goconvey/convey"
)

var levels = []model.ScoutLevel{
	{Name: "New", MinSP: 0},
	{Name: "Rising", MinSP: 100},
	{Name: "Star", MinSP: 500},
}

func TestResolve(t *testing.T) {
	Convey("Given a three-level table", t, func() {
		Convey("When the rater has no points", func() {
			st := scout.Resolve(0, levels)

			Convey("Then they are at the first level with no progress", func() {
				So(st.LevelName, ShouldEqual, "New")
				So(st.ProgressPercent, ShouldEqual, 0)
				So(st.PointsToNext, ShouldEqual, 100)
				So(st.NextLevelName, ShouldEqual, "Rising")
			})
		})

		Convey("When the rater is part way through a level", func() {
			st := scout.Resolve(150, levels)

			Convey("Then progress is measured within that level", func() {
				So(st.LevelName, ShouldEqual, "Rising")
				So(st.CurrentLevelSP, ShouldEqual, 50)
				So(st.PointsForNextLevel, ShouldEqual, 400)
				So(st.ProgressPercent, ShouldEqual, 12.5)
				So(st.PointsToNext, ShouldEqual, 350)
			})
		})

		Convey("When the rater exactly reaches a threshold", func() {
			st := scout.Resolve(100, levels)

			Convey("Then they enter the new level", func() {
				So(st.LevelName, ShouldEqual, "Rising")
				So(st.CurrentLevelSP, ShouldEqual, 0)
				So(st.PointsToNext, ShouldEqual, 400)
			})
		})

		Convey("When the rater is past the top level", func() {
			st := scout.Resolve(999, levels)

			Convey("Then progress is full with nothing to go", func() {
				So(st.LevelName, ShouldEqual, "Star")
				So(st.ProgressPercent, ShouldEqual, 100)
				So(st.PointsToNext, ShouldEqual, 0)
				So(st.NextLevelName, ShouldBeEmpty)
			})
		})

		Convey("When the total is negative", func() {
			st := scout.Resolve(-20, levels)

			Convey("Then it clamps to the lowest level", func() {
				So(st.LevelName, ShouldEqual, "New")
				So(st.CurrentLevelSP, ShouldEqual, 0)
				So(st.ProgressPercent, ShouldEqual, 0)
				So(st.PointsToNext, ShouldEqual, 100)
			})
		})
	})

	Convey("Given a table whose floor is above zero", t, func() {
		table := []model.ScoutLevel{{Name: "Bronze", MinSP: 50}, {Name: "Silver", MinSP: 150}}

		Convey("Then a total below the floor clamps to the first level", func() {
			st := scout.Resolve(10, table)
			So(st.LevelName, ShouldEqual, "Bronze")
			So(st.ProgressPercent, ShouldEqual, 0)
			So(st.PointsToNext, ShouldEqual, 100)
		})
	})

	Convey("Given two levels sharing a threshold", t, func() {
		table := []model.ScoutLevel{{Name: "A", MinSP: 0}, {Name: "B", MinSP: 0}, {Name: "C", MinSP: 10}}

		Convey("Then the later row wins", func() {
			st := scout.Resolve(5, table)
			So(st.LevelName, ShouldEqual, "B")
			So(st.ProgressPercent, ShouldEqual, 50)
		})
	})

	Convey("Given an empty table", t, func() {
		st := scout.Resolve(250, nil)

		Convey("Then the sentinel tier is returned", func() {
			So(st.LevelName, ShouldEqual, scout.DefaultLevelName)
			So(st.LevelName, ShouldEqual, "New Scout")
			So(st.ProgressPercent, ShouldEqual, 0)
		})
	})

	Convey("Given a table passed to Resolve", t, func() {
		table := []model.ScoutLevel{{Name: "New", MinSP: 0}, {Name: "Pro", MinSP: 10}}
		_ = scout.Resolve(7, table)

		Convey("Then the table is not modified", func() {
			So(table, ShouldResemble, []model.ScoutLevel{{Name: "New", MinSP: 0}, {Name: "Pro", MinSP: 10}})
		})
	})
}

func TestResolveProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("progress stays within [0,100] and points add up", prop.ForAll(
		func(sp int) bool {
			st := scout.Resolve(sp, levels)
			if st.ProgressPercent < 0 || st.ProgressPercent > 100 {
				return false
			}
			if st.NextLevelName == "" {
				return st.PointsToNext == 0
			}
			return st.CurrentLevelSP+st.PointsToNext == st.PointsForNextLevel
		},
		gen.IntRange(-1000, 5000),
	))

	properties.Property("resolving is deterministic", prop.ForAll(
		func(sp int) bool { return scout.Resolve(sp, levels) == scout.Resolve(sp, levels) },
		gen.IntRange(0, 5000),
	))

	properties.TestingRun(t)
}
