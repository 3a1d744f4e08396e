package hype_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/okian/stagerank/internal/domain/hype"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestIntensity(t *testing.T) {
	convey.Convey("Given the hype intensity function", t, func() {
		convey.Convey("When the performer has half the top count", func() {
			convey.So(hype.Intensity(5, 10), convey.ShouldEqual, 50)
		})

		convey.Convey("When the result needs rounding", func() {
			convey.So(hype.Intensity(1, 3), convey.ShouldEqual, 33)
			convey.So(hype.Intensity(2, 3), convey.ShouldEqual, 67)
		})

		convey.Convey("When nobody in scope has ratings", func() {
			convey.So(hype.Intensity(0, 0), convey.ShouldEqual, 0)
		})

		convey.Convey("When the max was computed before this performer's count grew", func() {
			convey.So(hype.Intensity(12, 10), convey.ShouldEqual, 100)
		})

		convey.Convey("When the max is zero but the performer has ratings", func() {
			convey.So(hype.Intensity(3, 0), convey.ShouldEqual, 100)
		})

		convey.Convey("When the count is negative", func() {
			convey.So(hype.Intensity(-4, 10), convey.ShouldEqual, 0)
		})
	})
}

func TestMaxCount(t *testing.T) {
	convey.Convey("Given a set of aggregates", t, func() {
		aggs := []model.PerformerAggregate{{RatingCount: 3}, {RatingCount: 9}, {RatingCount: 0}}

		convey.Convey("Then the max rating count is returned", func() {
			convey.So(hype.MaxCount(aggs), convey.ShouldEqual, 9)
		})

		convey.Convey("And an empty set yields zero", func() {
			convey.So(hype.MaxCount(nil), convey.ShouldEqual, 0)
		})
	})
}

func TestIntensityProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("zero count is always zero", prop.ForAll(
		func(maxCount int) bool { return hype.Intensity(0, maxCount) == 0 },
		gen.IntRange(0, 10_000),
	))

	properties.Property("any positive count over a zero max is full", prop.ForAll(
		func(count int) bool { return hype.Intensity(count, 0) == 100 },
		gen.IntRange(1, 10_000),
	))

	properties.Property("result stays within [0,100]", prop.ForAll(
		func(count, maxCount int) bool {
			v := hype.Intensity(count, maxCount)
			return v >= 0 && v <= 100
		},
		gen.IntRange(-100, 10_000),
		gen.IntRange(-100, 10_000),
	))

	properties.TestingRun(t)
}
